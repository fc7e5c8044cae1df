package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newScanCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan without the push feed and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.load()
			if limit > 0 {
				cfg.ResultCap = limit
			}

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			a, err := newApp(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.scanner.Scan(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(result)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum tokens to return (overrides RESULT_CAP)")
	return cmd
}

func newRecallCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Print the most recent recall entries as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.load()

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			a, err := newApp(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.close()

			page, err := a.scanner.Recall(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeJSON(page)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of entries (1-500)")
	return cmd
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
