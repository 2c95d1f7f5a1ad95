// Package universe defines the sector universe the scanner runs over:
// named sector groups of US tickers, loaded from YAML or refreshed from
// index constituent listings.
package universe

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/sectorlag/internal/contracts"
)

// Universe maps sector names to their member tickers.
type Universe struct {
	Sectors map[string][]string `yaml:"sectors"`
}

// Load reads a universe file. Unknown keys are rejected so typos in the
// file fail loudly instead of silently dropping sectors.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates universe YAML.
func Parse(data []byte) (*Universe, error) {
	var u Universe
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&u); err != nil {
		return nil, fmt.Errorf("parse universe yaml: %w", err)
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	u.normalize()
	return &u, nil
}

// Validate checks structural soundness: at least one sector, no empty
// sectors, no duplicate tickers within a sector.
func (u *Universe) Validate() error {
	if len(u.Sectors) == 0 {
		return fmt.Errorf("universe: %w", contracts.ErrEmptyUniverse)
	}
	for sector, tickers := range u.Sectors {
		if len(tickers) == 0 {
			return contracts.ValidationError{
				Field:   "sectors." + sector,
				Message: "sector has no tickers",
			}
		}
		seen := make(map[string]struct{}, len(tickers))
		for _, t := range tickers {
			key := strings.ToUpper(strings.TrimSpace(t))
			if key == "" {
				return contracts.ValidationError{
					Field:   "sectors." + sector,
					Message: "blank ticker",
				}
			}
			if _, dup := seen[key]; dup {
				return contracts.ValidationError{
					Field:   "sectors." + sector,
					Message: fmt.Sprintf("duplicate ticker %s", key),
				}
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

func (u *Universe) normalize() {
	for sector, tickers := range u.Sectors {
		for i, t := range tickers {
			tickers[i] = strings.ToUpper(strings.TrimSpace(t))
		}
		u.Sectors[sector] = tickers
	}
}

// SectorNames returns sector names sorted for deterministic iteration.
func (u *Universe) SectorNames() []string {
	names := make([]string, 0, len(u.Sectors))
	for name := range u.Sectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tickers returns the members of one sector, or an EmptyUniverse error
// when the sector is unknown.
func (u *Universe) Tickers(sector string) ([]string, error) {
	tickers, ok := u.Sectors[sector]
	if !ok || len(tickers) == 0 {
		return nil, fmt.Errorf("sector %s: %w", sector, contracts.ErrEmptyUniverse)
	}
	return tickers, nil
}

// AllTickers returns the deduplicated union of every sector, sorted.
func (u *Universe) AllTickers() []string {
	seen := make(map[string]struct{})
	for _, tickers := range u.Sectors {
		for _, t := range tickers {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
