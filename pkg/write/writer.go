package write

import (
	"context"

	"github.com/pkg/errors"

	"fpetkovski/mfem-parquet/extract"
)

var ErrBufferTooSmall = extract.ErrBufferTooSmall

// Sink consumes batches. WriteBatch is called synchronously and takes
// ownership of the batch. Finalize is called once after the last batch of a
// successful run and Abort after a failed one.
type Sink interface {
	WriteBatch(ctx context.Context, batch Batch) error
	Finalize() error
	Abort() error
}

type state int

const (
	stateFilling state = iota
	stateDrained
	stateDone
)

type WriterOption func(*BatchWriter)

func WithMetrics(metrics *Metrics) WriterOption {
	return func(w *BatchWriter) {
		if metrics != nil {
			w.metrics = metrics
		}
	}
}

// WithProgress calls fn with the number of elements in each handed off batch.
func WithProgress(fn func(elements int)) WriterOption {
	return func(w *BatchWriter) {
		w.progress = fn
	}
}

// WithMaxBatchElements caps the number of elements in one batch.
func WithMaxBatchElements(n int) WriterOption {
	return func(w *BatchWriter) {
		w.maxElements = n
	}
}

// BatchWriter drives a session into a bounded buffer and hands the buffer to
// a sink whenever it is full or the mesh is exhausted.
type BatchWriter struct {
	session *extract.Session
	sink    Sink
	buffer  *Buffer

	state      state
	cursor     extract.Cursor
	batchStart int
	sequence   int

	maxElements int
	metrics     *Metrics
	progress    func(elements int)
}

func NewBatchWriter(session *extract.Session, sink Sink, capacity int, opts ...WriterOption) (*BatchWriter, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrBufferTooSmall, "buffer capacity %d", capacity)
	}
	w := &BatchWriter{
		session: session,
		sink:    sink,
		buffer:  NewBuffer(capacity),
		metrics: NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Next extracts elements into the buffer until it fills up or the mesh is
// exhausted, handing full buffers to the sink. It reports whether elements
// remain to be extracted.
func (w *BatchWriter) Next(ctx context.Context) (bool, error) {
	if w.state == stateDone {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if w.state == stateDrained {
		w.batchStart = w.cursor.Position
		w.state = stateFilling
	}

	limits := extract.Limits{MaxRows: w.buffer.Remaining()}
	if w.maxElements > 0 {
		limits.MaxElements = w.maxElements - (w.cursor.Position - w.batchStart)
	}
	next, rows, err := w.session.Advance(w.cursor, limits, w.buffer)
	w.metrics.elements.Add(float64(next.Position - w.cursor.Position))
	w.cursor = next
	if err != nil {
		return false, err
	}

	switch {
	case w.session.AtEnd(w.cursor):
		if err := w.handOff(ctx); err != nil {
			return false, err
		}
		w.state = stateDone
		return false, nil
	case rows == 0 && w.buffer.Len() == 0:
		return false, errors.Wrapf(ErrBufferTooSmall, "element %d does not fit in %d rows", w.cursor.Position, w.buffer.Capacity())
	case rows == 0, w.buffer.IsFull(), w.batchFull():
		if err := w.handOff(ctx); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (w *BatchWriter) batchFull() bool {
	return w.maxElements > 0 && w.cursor.Position-w.batchStart >= w.maxElements
}

func (w *BatchWriter) handOff(ctx context.Context) error {
	batch := w.buffer.Batch()
	w.state = stateDrained
	if batch.Empty() {
		return nil
	}
	batch.Sequence = w.sequence
	batch.FirstElement = w.batchStart
	batch.NumElements = w.cursor.Position - w.batchStart

	if err := w.sink.WriteBatch(ctx, batch); err != nil {
		return errors.Wrapf(err, "writing batch %d", batch.Sequence)
	}
	w.sequence++
	w.metrics.observeBatch(w.session.Kind(), batch)
	if w.progress != nil {
		w.progress(batch.NumElements)
	}
	return nil
}

// Run writes every element of the session to the sink. The sink is
// finalized only if extraction reached the end of the mesh; otherwise it is
// aborted and the first error is returned.
func (w *BatchWriter) Run(ctx context.Context) error {
	for {
		more, err := w.Next(ctx)
		if err != nil {
			if abortErr := w.sink.Abort(); abortErr != nil {
				return errors.Wrapf(err, "abort failed: %s", abortErr)
			}
			return err
		}
		if !more {
			break
		}
	}
	return w.sink.Finalize()
}

func (w *BatchWriter) Cursor() extract.Cursor {
	return w.cursor
}

// Batches is the number of batches handed to the sink.
func (w *BatchWriter) Batches() int {
	return w.sequence
}
