package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reelops/config"
	"reelops/store"
)

// PurgeCmd clears the operation log, the offline counterpart of POST /api/delete.
func PurgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every record in the operation log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to purge without --yes")
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

			if err := s.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s operation log cleared (%s)\n", color.New(color.FgGreen).Sprint("✓"), cfg.OperationStore)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
