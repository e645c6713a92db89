// Package market produces the market snapshot block of the briefing:
// last price and day change for a configured universe of FX pairs, rates,
// commodities, indices and vol.
package market

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Symbol is one quoted instrument. Display overrides the default name
// derived from the Yahoo symbol (CNY=X shows as USDCNY, ^TNX as US10Y).
type Symbol struct {
	Symbol  string `yaml:"symbol"`
	Display string `yaml:"display,omitempty"`
}

// Category groups symbols under an asset-class header ([FX], [RATES], ...).
type Category struct {
	Name    string   `yaml:"name"`
	Symbols []Symbol `yaml:"symbols"`
}

type Universe struct {
	Categories []Category `yaml:"categories"`
}

// LoadUniverse reads the ticker universe from a YAML file.
func LoadUniverse(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tickers config: %w", err)
	}
	defer f.Close()

	var u Universe
	if err := yaml.NewDecoder(f).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed to parse tickers config: %w", err)
	}
	if len(u.Categories) == 0 {
		return nil, fmt.Errorf("tickers config has no categories")
	}
	return &u, nil
}

// AllSymbols flattens the universe for batch quoting and news lookup.
func (u *Universe) AllSymbols() []string {
	var symbols []string
	for _, cat := range u.Categories {
		for _, s := range cat.Symbols {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols
}

// Name returns the display name for a symbol.
func (s Symbol) Name() string {
	if s.Display != "" {
		return s.Display
	}
	name := s.Symbol
	name = strings.TrimSuffix(name, "=X")
	name = strings.TrimSuffix(name, "=F")
	name = strings.TrimPrefix(name, "^")
	return name
}
