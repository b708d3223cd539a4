package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mridultyagi687/TSGLogistics-sub000/config"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/vendorstore"
)

var (
	findLoadID   string
	findVendorID string
	findStatuses string
)

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "Assignment related commands",
}

var assignmentsShowCmd = &cobra.Command{
	Use:   "show <assignment-id>",
	Short: "Print an assignment and its event ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssignmentsShow,
}

var assignmentsFindCmd = &cobra.Command{
	Use:   "find",
	Short: "List assignments matching the given filters",
	RunE:  runAssignmentsFind,
}

var assignmentsNoteCmd = &cobra.Command{
	Use:   "note <assignment-id> <text>",
	Short: "Append a note to an assignment's event ledger",
	Args:  cobra.ExactArgs(2),
	RunE:  runAssignmentsNote,
}

func init() {
	assignmentsFindCmd.Flags().StringVar(&findLoadID, "load", "", "filter by load id")
	assignmentsFindCmd.Flags().StringVar(&findVendorID, "vendor", "", "filter by vendor id")
	assignmentsFindCmd.Flags().StringVar(&findStatuses, "status", "", "comma separated statuses")
	assignmentsCmd.AddCommand(assignmentsShowCmd)
	assignmentsCmd.AddCommand(assignmentsFindCmd)
	assignmentsCmd.AddCommand(assignmentsNoteCmd)
	rootCmd.AddCommand(assignmentsCmd)
}

func storeClient() (*vendorstore.Client, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return vendorstore.New(cfg.VendorStore)
}

func runAssignmentsShow(cmd *cobra.Command, args []string) error {
	client, err := storeClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(rootContext(cmd), 10*time.Second)
	defer cancel()

	a, events, err := client.Get(ctx, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Assignment model.Assignment        `json:"assignment"`
		Events     []model.AssignmentEvent `json:"events"`
	}{a, events})
}

func runAssignmentsNote(cmd *cobra.Command, args []string) error {
	client, err := storeClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(rootContext(cmd), 10*time.Second)
	defer cancel()

	ev, err := client.AppendEvent(ctx, args[0], model.EventNoteAdded, map[string]any{"note": args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "noted: %s at %s\n", ev.AssignmentID, ev.OccurredAt.Format(time.RFC3339))
	return nil
}

func runAssignmentsFind(cmd *cobra.Command, args []string) error {
	f := assignment.Filter{LoadID: findLoadID, VendorID: findVendorID}
	for _, s := range strings.Split(findStatuses, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		st := model.AssignmentStatus(strings.ToUpper(s))
		if !st.Valid() {
			return fmt.Errorf("unknown status %q", s)
		}
		f.Statuses = append(f.Statuses, st)
	}

	client, err := storeClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(rootContext(cmd), 10*time.Second)
	defer cancel()

	list, err := client.Find(ctx, f)
	if err != nil {
		return err
	}
	for _, a := range list {
		score := "-"
		if a.Score != nil {
			score = fmt.Sprintf("%.3f", *a.Score)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tload=%s\tvendor=%s\tscore=%s\n", a.ID, a.Status, a.LoadID, a.VendorID, score)
	}
	return nil
}
