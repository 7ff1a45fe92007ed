package board

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TransformFunc rewrites a card symbol. It may block; the board is not
// locked while transforms are in flight.
type TransformFunc func(ctx context.Context, symbol string) (string, error)

// Map rewrites every card value through transform. The transform is invoked
// exactly once per distinct value currently on the board, so cells holding
// equal values receive equal results and matching pairs remain matching
// pairs. Flips and looks proceed normally while transforms are in flight;
// the results are written back in a single atomic step once all of them
// have returned. Controllers and face-up flags are untouched, removed cells
// are skipped.
//
// If any transform fails, Map returns its error and no cells change.
func (b *Board) Map(ctx context.Context, transform TransformFunc) error {
	b.mu.Lock()
	seen := make(map[string]bool)
	var distinct []string
	for i := range b.cells {
		if v := b.cells[i].value; v != "" && !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	b.mu.Unlock()

	results := make(map[string]string, len(distinct))
	var resultsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, v := range distinct {
		v := v
		g.Go(func() error {
			out, err := transform(gctx, v)
			if err != nil {
				return fmt.Errorf("transform %q: %w", v, err)
			}
			resultsMu.Lock()
			results[v] = out
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.cells {
		c := &b.cells[i]
		if c.value == "" {
			continue
		}
		if out, ok := results[c.value]; ok {
			c.value = out
		}
	}
	b.notifyListeners()
	b.checkRep()
	return nil
}
