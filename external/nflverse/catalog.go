package nflverse

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type Format string

const (
	FormatCSV     Format = "csv"
	FormatCSVGzip Format = "csv.gz"
	FormatParquet Format = "parquet"
)

// Asset locates one dataset inside the release tree.
type Asset struct {
	Path         string `yaml:"path"`
	Format       Format `yaml:"format"`
	SeasonColumn string `yaml:"season_column"`
}

// Resolve renders the asset path for a season.
func (a Asset) Resolve(season int) string {
	return strings.ReplaceAll(a.Path, "{season}", strconv.Itoa(season))
}

func (a Asset) seasonal() bool {
	return strings.Contains(a.Path, "{season}")
}

type Catalog map[dataset.Name]Asset

func LoadCatalog(r io.Reader) (Catalog, error) {
	var raw struct {
		Datasets map[string]Asset `yaml:"datasets"`
	}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset catalog: %w", err)
	}

	out := make(Catalog, len(raw.Datasets))
	for key, asset := range raw.Datasets {
		name, err := dataset.ParseName(key)
		if err != nil {
			return nil, fmt.Errorf("dataset catalog: %w", err)
		}
		if strings.TrimSpace(asset.Path) == "" {
			return nil, fmt.Errorf("dataset catalog: %s has no path", key)
		}
		switch asset.Format {
		case FormatCSV, FormatCSVGzip, FormatParquet:
		default:
			return nil, fmt.Errorf("dataset catalog: %s has unknown format %q", key, asset.Format)
		}
		out[name] = asset
	}
	return out, nil
}

func DefaultCatalog() Catalog {
	catalog, err := LoadCatalog(strings.NewReader(string(defaultCatalogYAML)))
	if err != nil {
		panic(err)
	}
	return catalog
}
