package registry

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchAll looks up every name concurrently and streams one FetchResult per
// name in completion order. A failed lookup is delivered as an element with Err
// set; it never stops the other lookups. The channel is closed once every name
// has been delivered.
//
// The caller must drain the channel.
func (c *Client) FetchAll(ctx context.Context, names []string) <-chan FetchResult {
	out := make(chan FetchResult)

	go func() {
		defer close(out)

		var g errgroup.Group
		if c.concurrency > 0 {
			g.SetLimit(c.concurrency)
		}
		for _, name := range names {
			g.Go(func() error {
				crate, err := c.FetchCrate(ctx, name)
				out <- FetchResult{Name: name, Crate: crate, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}
