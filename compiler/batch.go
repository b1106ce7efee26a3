package compiler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"nikand.dev/go/heap"
	"tlog.app/go/tlog"
)

type (
	// FileResult is one file outcome of CompileFiles.
	// Either Result or Err is set.
	FileResult struct {
		Index int
		Name  string

		*Result
		Err error
	}
)

// CompileFiles compiles files in parallel and calls f with results in names order.
// A compilation error is reported in FileResult and doesn't stop the batch.
// An error returned by f does, and is returned.
func CompileFiles(ctx context.Context, names []string, opts Options, f func(FileResult) error) (err error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile files", "files", len(names), "jobs", jobs)
	defer tr.Finish("err", &err)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	results := make(chan FileResult)

	go func() {
		defer close(results)

		for i, name := range names {
			i, name := i, name

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				res, err := CompileFile(gctx, name, opts)

				select {
				case results <- FileResult{Index: i, Name: name, Result: res, Err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}

		_ = g.Wait()
	}()

	pending := heap.Heap[FileResult]{Less: func(d []FileResult, i, j int) bool {
		return d[i].Index < d[j].Index
	}}

	next := 0

	for r := range results {
		pending.Push(r)

		for err == nil && pending.Len() != 0 {
			r := pending.Pop()
			if r.Index != next {
				pending.Push(r)
				break
			}

			next++

			if tr.If("batch") {
				tr.Printw("file done", "index", r.Index, "name", r.Name, "err", r.Err)
			}

			err = f(r)
		}

		if err != nil {
			cancel()
		}
	}

	if err == nil && next < len(names) {
		return ctx.Err()
	}

	return err
}
