// Package engine implements the reconciliation loop that matches loads
// awaiting sourcing with vendor candidates. Each cycle reads the sourcing
// loads, fans out over the vendor fleet for capabilities, scores candidates
// per load and drives assignment creation plus load propagation for the
// winner. Loads are processed independently; one failure never aborts the
// rest of the cycle.
package engine
