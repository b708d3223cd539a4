// Package matching implements candidate scoring for load sourcing. Scoring is
// a stateless policy: the engine hands it one load plus the vendor bundles and
// gets back a ranked shortlist, so the policy can be swapped without touching
// the reconciliation loop.
package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
)

// Candidate bundles a vendor with its capability documents.
type Candidate struct {
	Vendor       model.Vendor
	Capabilities []model.Capability
}

// Ranked is a scored candidate together with the component breakdown that
// explains the score. The breakdown travels with the winning assignment as
// metadata.
type Ranked struct {
	Candidate
	Score     float64
	Breakdown Breakdown
}

// Breakdown captures the individual scoring components before weighting.
type Breakdown struct {
	VehicleMatch  float64 `json:"vehicleMatch"`
	RouteCoverage float64 `json:"routeCoverage"`
	RatingScore   float64 `json:"ratingScore"`
	Route         string  `json:"route"`
}

// Metadata renders the breakdown as the free-form metadata snapshot stored on
// the assignment and projected onto the load.
func (b Breakdown) Metadata() map[string]any {
	return map[string]any{
		"vehicleMatch":  b.VehicleMatch,
		"routeCoverage": b.RouteCoverage,
		"ratingScore":   b.RatingScore,
		"route":         b.Route,
	}
}

// Scorer ranks vendor candidates for a load. Implementations must be pure:
// identical input yields identical output and ordering.
type Scorer interface {
	Score(load model.Load, candidates []Candidate) []Ranked
}

// WeightedScorer scores candidates with a fixed-weight formula over vehicle
// match, route coverage and vendor rating.
type WeightedScorer struct {
	VehicleWeight float64
	RouteWeight   float64
	RatingWeight  float64
}

// NewWeightedScorer returns a scorer with the production weights.
func NewWeightedScorer() WeightedScorer {
	return WeightedScorer{VehicleWeight: 0.4, RouteWeight: 0.4, RatingWeight: 0.2}
}

const (
	routeCovered  = 1.0
	routeUnknown  = 0.5
	ratingNeutral = 0.5
)

// Score ranks the candidates descending by score, ties broken by input order.
// Candidates scoring exactly zero are dropped: with the neutral floors that
// only happens for an unmatched vehicle on a vendor explicitly rated zero,
// which the policy treats as ineligible.
func (s WeightedScorer) Score(load model.Load, candidates []Candidate) []Ranked {
	route := RouteKey(load.Pickup.City, load.Drop.City)
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		b := Breakdown{Route: route}
		b.VehicleMatch = vehicleMatch(load.VehicleType, c.Capabilities)
		b.RouteCoverage = routeCoverage(route, c.Capabilities)
		b.RatingScore = ratingScore(c.Vendor.Rating)
		score := s.VehicleWeight*b.VehicleMatch + s.RouteWeight*b.RouteCoverage + s.RatingWeight*b.RatingScore
		if score == 0 {
			continue
		}
		ranked = append(ranked, Ranked{Candidate: c, Score: score, Breakdown: b})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// RouteKey builds the canonical "PICKUP-DROP" coverage key for two cities.
func RouteKey(pickup, drop string) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(strings.TrimSpace(pickup)), strings.ToUpper(strings.TrimSpace(drop)))
}

func vehicleMatch(vehicleType string, caps []model.Capability) float64 {
	for _, c := range caps {
		for _, ft := range c.FleetTypes() {
			if strings.EqualFold(ft, vehicleType) {
				return 1
			}
		}
	}
	return 0
}

func routeCoverage(route string, caps []model.Capability) float64 {
	for _, c := range caps {
		for _, r := range c.RouteCoverage() {
			if strings.EqualFold(r, route) {
				return routeCovered
			}
		}
	}
	// Unknown routes keep the vendor eligible, just disadvantaged.
	return routeUnknown
}

func ratingScore(rating *float64) float64 {
	if rating == nil {
		return ratingNeutral
	}
	r := *rating / 5
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
