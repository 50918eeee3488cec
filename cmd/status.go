package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fiber-atlas/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached datasets and the last load record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("load"); err != nil {
			return err
		}
		if cfg.Store.Driver == "none" {
			zap.L().Info("no store configured, nothing to report")
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rec, err := st.LastLoad(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				zap.L().Info("no load recorded yet, run 'fiber-atlas load' first")
				return nil
			}
			return err
		}

		formatLoadRecord(os.Stdout, rec)
		return nil
	},
}

func formatLoadRecord(out io.Writer, rec *store.LoadRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tDATASETS\tSTARTED\tDURATION\tERROR")

	dur := rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond)
	errMsg := "-"
	if rec.Error != "" {
		errMsg = rec.Error
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
		rec.ID, rec.Status, rec.Datasets,
		rec.StartedAt.Format(time.RFC3339), dur, errMsg)
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
