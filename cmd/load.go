package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fiber-atlas/internal/model"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fetch all datasets once and refresh the cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initAtlas(ctx, "load")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Atlas.Load(ctx); err != nil {
			return eris.Wrap(err, "load datasets")
		}

		zap.L().Info("load complete",
			zap.Int("states", len(env.Atlas.Regions(model.GranularityNational))),
			zap.Int("counties", len(env.Atlas.Regions(model.GranularityRegional))),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
