package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/fiber-atlas/internal/viewstate"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the regional screening table to an .xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initAtlas(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Atlas.Load(ctx); err != nil {
			return eris.Wrap(err, "load datasets")
		}
		if !env.View.DrillDown(cfg.View.RegionalState) {
			return eris.Errorf("no regional data for state %s", cfg.View.RegionalState)
		}

		rows := env.View.TableRows()

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Counties")
		if err != nil {
			return eris.Wrap(err, "add sheet")
		}

		header := sheet.AddRow()
		for _, h := range []string{"GEOID", "Name", "Population", "Housing Density",
			"Median Income", "Fiber Penetration", "Demographic", "Attractiveness"} {
			header.AddCell().SetString(h)
		}

		var written int
		for _, row := range rows {
			if row.Hidden {
				continue
			}
			writeTableRow(sheet, row)
			written++
		}

		if err := f.Save(exportOutPath); err != nil {
			return eris.Wrapf(err, "save %s", exportOutPath)
		}

		zap.L().Info("export complete",
			zap.String("out", exportOutPath),
			zap.Int("rows", written),
		)
		return nil
	},
}

func writeTableRow(sheet *xlsx.Sheet, row viewstate.TableRow) {
	r := sheet.AddRow()
	for _, v := range []string{row.GEOID, row.Name, row.Population, row.Density,
		row.Income, row.Penetration, row.Demographic, row.Attractiveness} {
		r.AddCell().SetString(v)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "counties.xlsx", "output .xlsx path")
	rootCmd.AddCommand(exportCmd)
}
