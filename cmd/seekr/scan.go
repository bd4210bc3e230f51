package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seekr/internal/scan"
)

var (
	scanLimit   int
	scanProxy   bool
	scanVerbose bool
	scanNoColor bool
	scanJSON    bool
	scanOutput  string
)

var scanCmd = &cobra.Command{
	Use:   "scan <username>",
	Short: "Probe the platform catalog for a username",
	Long: `Scan probes every catalog entry for the given username and prints
results as they complete. By default only found profiles are printed;
--verbose includes misses and failures.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runScan(ctx, args[0])
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "probe at most this many catalog entries (0 = all)")
	scanCmd.Flags().BoolVar(&scanProxy, "proxy", false, "force the proxy pool on for this scan")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "print misses and failures too")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "disable colored output")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the full result as JSON instead of lines")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "also write plain-text results to this file")
}

func runScan(ctx context.Context, handle string) error {
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}

	if scanProxy && !a.pool.Enabled() {
		if !a.pool.SetEnabled(true) {
			return fmt.Errorf("cannot enable proxy: no proxies configured (set proxy_config.proxies or auto_fetch)")
		}
	}

	if scanJSON {
		result, err := a.scans.Search(ctx, handle, scanLimit)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	session, err := a.scans.Start(ctx, handle, scanLimit)
	if err != nil {
		return err
	}

	printer, closer, err := newScanPrinter()
	if err != nil {
		return err
	}
	defer closer()

	printer.Header(handle, session.Total())

	var summary *scan.Summary
	for event := range session.Events() {
		switch event.Type {
		case scan.EventSiteResult:
			printer.Result(*event.Result)
		case scan.EventSearchComplete:
			summary = event.Summary
		}
	}

	if summary == nil {
		return ctx.Err()
	}
	printer.Summary(*summary)
	return nil
}

func newScanPrinter() (*Printer, func(), error) {
	if scanOutput == "" {
		return NewPrinter(os.Stdout, scanNoColor, scanVerbose, nil), func() {}, nil
	}

	file, err := os.Create(scanOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return NewPrinter(os.Stdout, scanNoColor, scanVerbose, file), func() { file.Close() }, nil
}
