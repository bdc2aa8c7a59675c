package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Batch size bounds.
const (
	// DefaultBatchSize is the number of units per span when none is configured.
	DefaultBatchSize = 100

	// MinBatchSize is the smallest allowed span.
	MinBatchSize = 1

	// MaxBatchSize is the largest allowed span.
	MaxBatchSize = 10000
)

// Common batch errors.
var (
	ErrInvalidBatchSize = fmt.Errorf("batch size must be between %d and %d", MinBatchSize, MaxBatchSize)
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrNoWork           = errors.New("total must be greater than zero")
)

// Span is the half-open unit range [Start, End) processed by one callback.
type Span struct {
	// Index is the span's position in the plan, starting at 0.
	Index int
	Start int
	End   int
}

// Len returns the number of units in the span.
func (s Span) Len() int { return s.End - s.Start }

// Callback processes one span.
type Callback func(ctx context.Context, span Span) error

// ProgressCallback receives a snapshot after each completed span.
type ProgressCallback func(snapshot Snapshot)

// Processor plans and runs spans of work.
type Processor struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor returns a processor with the given batch size.
func NewProcessor(batchSize int) (*Processor, error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults returns a processor using DefaultBatchSize.
func NewProcessorWithDefaults() *Processor {
	return &Processor{batchSize: DefaultBatchSize}
}

// WithProgressCallback sets the progress callback and returns p.
func (p *Processor) WithProgressCallback(cb ProgressCallback) *Processor {
	p.onProgress = cb
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor) BatchSize() int {
	return p.batchSize
}

// Plan returns the spans covering [0, total).
func (p *Processor) Plan(total int) []Span {
	if total <= 0 {
		return nil
	}
	n := (total + p.batchSize - 1) / p.batchSize
	spans := make([]Span, n)
	for i := range n {
		start := i * p.batchSize
		spans[i] = Span{Index: i, Start: start, End: min(start+p.batchSize, total)}
	}
	return spans
}

// Run processes [0, total) on up to workers goroutines. workers below 2
// runs spans sequentially in plan order. The first error cancels the
// remaining spans and is returned wrapped with its span index.
func (p *Processor) Run(ctx context.Context, total, workers int, cb Callback) error {
	if total <= 0 {
		return ErrNoWork
	}
	if cb == nil {
		return ErrNilCallback
	}

	spans := p.Plan(total)
	tracker := newTracker(total, len(spans), p.onProgress)

	if workers < 2 {
		for _, span := range spans {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := cb(ctx, span); err != nil {
				return fmt.Errorf("batch %d [%d,%d) failed: %w", span.Index, span.Start, span.End, err)
			}
			tracker.done(span)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, span := range spans {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := cb(gctx, span); err != nil {
				return fmt.Errorf("batch %d [%d,%d) failed: %w", span.Index, span.Start, span.End, err)
			}
			tracker.done(span)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// A parent cancellation observed before scheduling finished leaves spans
	// unprocessed without any goroutine reporting it.
	return ctx.Err()
}

// tracker serializes progress updates and callbacks.
type tracker struct {
	mu       sync.Mutex
	progress *Progress
	cb       ProgressCallback
}

func newTracker(total, spans int, cb ProgressCallback) *tracker {
	return &tracker{progress: NewProgress(total, spans), cb: cb}
}

func (t *tracker) done(span Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.AddProcessed(span.Len())
	if t.cb != nil {
		t.cb(t.progress.Snapshot())
	}
}
