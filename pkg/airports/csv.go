package airports

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Column names of the ourairports airport-codes.csv layout.
var csvColumns = []string{
	"ident", "type", "name", "elevation_ft", "continent", "iso_country",
	"iso_region", "municipality", "gps_code", "iata_code", "local_code",
	"coordinates",
}

// optional columns may be absent from trimmed down catalogs
var optionalColumns = map[string]bool{
	"elevation_ft": true,
	"continent":    true,
	"gps_code":     true,
	"iata_code":    true,
	"local_code":   true,
}

// ReadCSV parses an airport catalog, locating columns by header name so
// column order does not matter.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	indices := make(map[string]int, len(csvColumns))
	var missing []string
	for _, col := range csvColumns {
		indices[col] = -1
		for hi, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == col {
				indices[col] = hi
				break
			}
		}
		if indices[col] < 0 && !optionalColumns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("catalog header is missing columns: %s", strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		if i := indices[col]; i >= 0 && i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}

		records = append(records, Record{
			Ident:        field(row, "ident"),
			Type:         field(row, "type"),
			Name:         field(row, "name"),
			ElevationFt:  field(row, "elevation_ft"),
			Continent:    field(row, "continent"),
			ISOCountry:   field(row, "iso_country"),
			ISORegion:    field(row, "iso_region"),
			Municipality: field(row, "municipality"),
			GPSCode:      field(row, "gps_code"),
			IATACode:     field(row, "iata_code"),
			LocalCode:    field(row, "local_code"),
			Coordinates:  field(row, "coordinates"),
		})
	}

	return records, nil
}

// LoadFile reads the catalog at path. Files ending in .zst are
// decompressed transparently.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airport catalog: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	records, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Load reads the catalog at path and builds an index from it.
func Load(path string) (*Index, error) {
	records, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(records)
}
