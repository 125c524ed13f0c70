// Package disks holds predefined disk geometries for common FAT volume
// sizes (floppies through small hard disks), loaded from an embedded CSV
// table. cmd/vfsctl turns these into fat.FormatOptions so callers can say
// "1.44M floppy" instead of spelling out sector counts by hand.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/go-vfskit/vfskit/fat"
)

// Geometry describes one predefined disk size: its physical sector layout
// plus the FAT parameters fat.Format should use to lay out a volume of
// that size.
type Geometry struct {
	Name              string `csv:"name"`
	Slug              string `csv:"slug"`
	BytesPerSector    int    `csv:"bytes_per_sector"`
	TotalSectors      int64  `csv:"total_sectors"`
	SectorsPerCluster int    `csv:"sectors_per_cluster"`
	NumFATs           int    `csv:"num_fats"`
	RootEntryCount    int    `csv:"root_entry_count"`
	Variant           string `csv:"variant"` // "fat16" or "fat32"
}

// TotalSizeBytes is the minimum backing image size for this geometry.
func (g Geometry) TotalSizeBytes() int64 {
	return g.TotalSectors * int64(g.BytesPerSector)
}

// FormatOptions converts a predefined geometry into fat.FormatOptions.
func (g Geometry) FormatOptions() fat.FormatOptions {
	variant := fat.VariantFAT16
	if g.Variant == "fat32" {
		variant = fat.VariantFAT32
	}
	return fat.FormatOptions{
		Variant:           variant,
		SectorsPerCluster: g.SectorsPerCluster,
		NumFATs:           g.NumFATs,
		RootEntryCount:    g.RootEntryCount,
	}
}

//go:embed disk-geometries.csv
var diskGeometriesRawCSV string

var diskGeometries map[string]Geometry

// GetPredefinedDiskGeometry looks up a geometry by its short slug, e.g.
// "floppy1440" or "hdd10m".
func GetPredefinedDiskGeometry(slug string) (Geometry, error) {
	geometry, ok := diskGeometries[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined disk geometry exists with slug %q", slug)
	}
	return geometry, nil
}

// PredefinedSlugs returns every known geometry slug, for CLI help text.
func PredefinedSlugs() []string {
	slugs := make([]string, 0, len(diskGeometries))
	for slug := range diskGeometries {
		slugs = append(slugs, slug)
	}
	return slugs
}

func init() {
	diskGeometries = make(map[string]Geometry)

	reader := strings.NewReader(diskGeometriesRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := diskGeometries[row.Slug]; exists {
			return fmt.Errorf("duplicate definition for disk %q", row.Slug)
		}
		diskGeometries[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}
