package main

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fiber-atlas/internal/geomap"
)

var (
	importShpPath  string
	importOutPath  string
	importIDField  string
	importNameAttr string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert a TIGER shapefile to a GeoJSON boundary file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reader, err := shp.Open(importShpPath)
		if err != nil {
			return eris.Wrapf(err, "open shapefile %s", importShpPath)
		}
		defer func() { _ = reader.Close() }()

		// Build field name → index map.
		fields := reader.Fields()
		fieldIdx := make(map[string]int, len(fields))
		for i, f := range fields {
			name := strings.TrimRight(f.String(), "\x00")
			fieldIdx[strings.ToLower(name)] = i
		}

		idIdx, ok := fieldIdx[strings.ToLower(importIDField)]
		if !ok {
			return eris.Errorf("shapefile has no %q attribute", importIDField)
		}
		nameIdx, hasName := fieldIdx[strings.ToLower(importNameAttr)]

		var boundaries []geomap.Boundary
		names := make(map[string]string)
		var skipped int

		for reader.Next() {
			_, shape := reader.Shape()

			geoid := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
			if geoid == "" {
				skipped++
				continue
			}

			poly, ok := shape.(*shp.Polygon)
			if !ok {
				skipped++
				continue
			}
			g := geomap.PolygonGeom(poly)
			if g == nil {
				skipped++
				continue
			}

			boundaries = append(boundaries, geomap.Boundary{GEOID: geoid, Geom: g})
			if hasName {
				names[geoid] = strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
			}
		}

		data, err := geomap.EncodeFeatures(boundaries, names)
		if err != nil {
			return err
		}
		if err := os.WriteFile(importOutPath, data, 0644); err != nil {
			return eris.Wrapf(err, "write %s", importOutPath)
		}

		zap.L().Info("import complete",
			zap.String("shapefile", importShpPath),
			zap.String("out", importOutPath),
			zap.Int("features", len(boundaries)),
			zap.Int("skipped", skipped),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importShpPath, "shp", "", "path to .shp file (required)")
	importCmd.Flags().StringVar(&importOutPath, "out", "", "output GeoJSON path (required)")
	importCmd.Flags().StringVar(&importIDField, "id-field", "GEOID", "attribute holding the region identifier")
	importCmd.Flags().StringVar(&importNameAttr, "name-field", "NAME", "attribute holding the region name")
	_ = importCmd.MarkFlagRequired("shp")
	_ = importCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(importCmd)
}
