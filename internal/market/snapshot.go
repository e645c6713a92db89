package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/macrodesk/macrobrief/internal/logger"
)

// Snapshot renders the market levels block for the briefing prompt.
// Symbols that fail to quote are skipped; only a fully failed batch is an
// error.
func Snapshot(ctx context.Context, quoter Quoter, universe *Universe) (string, error) {
	quotes, err := quoter.Quotes(ctx, universe.AllSymbols())
	if err != nil {
		return "", fmt.Errorf("market snapshot failed: %w", err)
	}

	var b strings.Builder
	b.WriteString("**Market Snapshot**\n")
	for _, cat := range universe.Categories {
		b.WriteString(fmt.Sprintf("[%s]\n", cat.Name))
		for _, s := range cat.Symbols {
			q, ok := quotes[s.Symbol]
			if !ok || q.Price == 0 {
				logger.Debug("no quote for symbol", "symbol", s.Symbol)
				continue
			}
			b.WriteString(fmt.Sprintf(" %s: %.4f (%+.2f%%)\n", s.Name(), q.Price, q.ChangePct()))
		}
		b.WriteString("------------------\n")
	}
	return b.String(), nil
}
