package orchestrator

import (
	"cmp"
	"slices"

	"github.com/slowlogdef/slowlogdef/internal/util"
	"golang.org/x/sync/errgroup"
)

type orderedOutput[T any] struct {
	order  int
	output T
}

// concurrentMap runs f over inputs with at most concurrency goroutines
// in flight, and returns outputs in the same order as inputs regardless
// of completion order. concurrency <= 0 means unlimited.
func concurrentMap[Tin, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	ch := make(chan orderedOutput[Tout], len(inputs))

	for i := range inputs {
		order := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			ch <- orderedOutput[Tout]{order, out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	close(ch)

	tmp := make([]orderedOutput[Tout], 0, len(inputs))
	for t := range ch {
		tmp = append(tmp, t)
	}
	slices.SortFunc(tmp, func(a, b orderedOutput[Tout]) int {
		return cmp.Compare(a.order, b.order)
	})

	return util.TransformSlice(tmp, func(t orderedOutput[Tout]) Tout {
		return t.output
	}), nil
}
