package compiler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Compiler compiles components with a fixed set of options. It holds no
// mutable state and is safe for concurrent use.
type Compiler struct {
	opts Options
}

// New returns a compiler using opts.
func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Options returns the options the compiler was created with.
func (c *Compiler) Options() Options {
	return c.opts
}

// Outcome is the result of one compile run off the calling goroutine.
type Outcome struct {
	Result *Result
	Err    error
}

// CompileSync compiles in on the calling goroutine.
func (c *Compiler) CompileSync(in Input) (*Result, error) {
	return CompileInput(in, c.opts)
}

// CompileAsync compiles in on a new goroutine and delivers the outcome on
// the returned channel, which is closed afterwards. ctx is only consulted
// before the compile starts: a compile that has begun always completes.
func (c *Compiler) CompileAsync(ctx context.Context, in Input) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- Outcome{Err: err}
			return
		}
		res, err := c.CompileSync(in)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

// CompileAll compiles every input with at most limit compiles in flight,
// GOMAXPROCS when limit <= 0. Outcomes are returned in input order; a
// failed compile does not stop the others. The error is non-nil only when
// ctx is done before every input has started.
func (c *Compiler) CompileAll(ctx context.Context, inputs []Input, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range inputs {
		if err := gctx.Err(); err != nil {
			out[i] = Outcome{Err: err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i] = Outcome{Err: err}
				return err
			}
			res, err := c.CompileSync(inputs[i])
			out[i] = Outcome{Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	for _, o := range out {
		if o.Result == nil && o.Err != nil && o.Err == ctx.Err() {
			return out, o.Err
		}
	}
	return out, nil
}

// CompileAll compiles inputs with opts. See Compiler.CompileAll.
func CompileAll(ctx context.Context, inputs []Input, opts Options, limit int) ([]Outcome, error) {
	return New(opts).CompileAll(ctx, inputs, limit)
}
