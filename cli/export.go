package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reelops/config"
	"reelops/report"
	"reelops/store"
)

// ExportCmd writes the operation log to a file or stdout.
func ExportCmd() *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the operation log as CSV or PDF",
		Long: `Export the operation log from the configured store.

Examples:
  reelops export                          # CSV to stdout
  reelops export --out ops.csv
  reelops export --format pdf --out ops.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "pdf" {
				return fmt.Errorf("unknown format %q (want csv or pdf)", format)
			}
			if format == "pdf" && out == "" {
				return errors.New("--out is required for pdf exports")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			s, err := store.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.List(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "No data available")
				return nil
			}

			body, err := report.CSV(records)
			if err != nil {
				return err
			}
			if format == "pdf" {
				generatedAt := time.Now().In(cfg.Location)
				payload := report.NewSigner(cfg.SecretKey).Payload(len(records), generatedAt, body)
				if body, err = report.PDF(records, generatedAt, payload); err != nil {
					return err
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				if err := os.WriteFile(out, body, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				w = cmd.ErrOrStderr()
				fmt.Fprintf(w, "%s %d records to %s\n", color.New(color.FgGreen).Sprint("✓ exported"), len(records), out)
				return nil
			}
			_, err = w.Write(body)
			return err
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or pdf")
	return cmd
}
