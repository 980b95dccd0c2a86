package generic

import "golang.org/x/sync/errgroup"

// ParallelEach runs exec for every item concurrently and returns the first
// error.
func ParallelEach[T any](items []T, exec func(i int, item T) error) error {
	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			return exec(i, item)
		})
	}
	return g.Wait()
}
