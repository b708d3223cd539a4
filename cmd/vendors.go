package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mridultyagi687/TSGLogistics-sub000/config"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/vendorstore"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Vendor related commands",
}

var vendorsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List vendors with their capability documents",
	RunE:  runVendorsLs,
}

var vendorsCapsSetCmd = &cobra.Command{
	Use:   "capabilities-set <vendor-id> <payloads.json>",
	Short: "Replace a vendor's capability documents from a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE:  runVendorsCapsSet,
}

func init() {
	vendorsCmd.AddCommand(vendorsLsCmd)
	vendorsCmd.AddCommand(vendorsCapsSetCmd)
	rootCmd.AddCommand(vendorsCmd)
}

func vendorClient() (*vendorstore.Client, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return vendorstore.New(cfg.VendorStore)
}

func runVendorsLs(cmd *cobra.Command, args []string) error {
	client, err := vendorClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(rootContext(cmd), 10*time.Second)
	defer cancel()

	vendors, err := client.ListVendors(ctx)
	if err != nil {
		return err
	}
	for _, v := range vendors {
		caps, err := client.Capabilities(ctx, v.ID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "capabilities for %s: %v\n", v.ID, err)
			continue
		}
		rating := "unrated"
		if v.Rating != nil {
			rating = fmt.Sprintf("%.1f", *v.Rating)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\trating=%s\tcapabilities=%d\n", v.ID, v.Name, rating, len(caps))
	}
	return nil
}

func runVendorsCapsSet(cmd *cobra.Command, args []string) error {
	vendorID, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var payloads []map[string]any
	if err := json.Unmarshal(data, &payloads); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	client, err := vendorClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(rootContext(cmd), 10*time.Second)
	defer cancel()

	caps, err := client.ReplaceCapabilities(ctx, vendorID, payloads)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "replaced: %d capability documents for %s\n", len(caps), vendorID)
	return nil
}
