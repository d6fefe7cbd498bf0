package sdk

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ensigniasec/tiered-sto/internal/offering"
)

// AllOfferings fetches the Tiered offerings of every symbol concurrently. The
// result maps each symbol to its offerings; the first failure cancels the rest.
func AllOfferings(ctx context.Context, c Client, symbols []string) (map[string][]offering.Offering, error) {
	results := make([][]offering.Offering, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			all, err := c.Offerings(ctx, symbol)
			if err != nil {
				return fmt.Errorf("offerings of %s: %w", symbol, err)
			}
			results[i] = offering.FilterTiered(all)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]offering.Offering, len(symbols))
	for i, symbol := range symbols {
		out[symbol] = results[i]
	}
	return out, nil
}
