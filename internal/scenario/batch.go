package scenario

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem pairs an input's outcome with its error; exactly one is set.
type BatchItem struct {
	Name    string
	Outcome *Outcome
	Err     error
}

// RunBatch runs independent scenarios concurrently, at most limit at a time (limit <= 0
// means no limit). A failing scenario does not stop the others; items keep input order.
func (e *Engine) RunBatch(ctx context.Context, inputs []Input, limit int) []BatchItem {
	items := make([]BatchItem, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range inputs {
		i := i
		g.Go(func() error {
			out, err := e.Run(gctx, inputs[i])
			items[i] = BatchItem{Name: inputs[i].Name, Outcome: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items
}
