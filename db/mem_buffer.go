package db

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"

	"fpetkovski/mfem-parquet/pkg/write"
	"fpetkovski/mfem-parquet/schema"
)

// MemorySink keeps every batch in memory.
type MemorySink struct {
	batches   []write.Batch
	finalized bool
	aborted   bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) WriteBatch(ctx context.Context, batch write.Batch) error {
	if m.finalized || m.aborted {
		return errors.New("sink is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.batches = append(m.batches, batch)
	return nil
}

func (m *MemorySink) Finalize() error {
	m.finalized = true
	return nil
}

// Abort discards every batch.
func (m *MemorySink) Abort() error {
	m.aborted = true
	m.batches = nil
	return nil
}

func (m *MemorySink) Batches() []write.Batch { return m.batches }

func (m *MemorySink) Finalized() bool { return m.finalized }

func (m *MemorySink) Aborted() bool { return m.aborted }

// NumRows is the number of records of table across all batches.
func (m *MemorySink) NumRows(table *schema.Table) int {
	var n int
	for _, b := range m.batches {
		n += b.TableRows(table)
	}
	return n
}

// Rows reads the records of table as parquet rows in hand-off order.
func (m *MemorySink) Rows(table *schema.Table) parquet.RowReader {
	return &memBufferRows{
		table:   table,
		batches: m.batches,
	}
}

type memBufferRows struct {
	table   *schema.Table
	batches []write.Batch
	pending []parquet.Row
}

func (m *memBufferRows) ReadRows(rows []parquet.Row) (int, error) {
	for len(m.pending) == 0 {
		if len(m.batches) == 0 {
			return 0, io.EOF
		}
		m.pending = m.batches[0].Rows(m.table)
		m.batches = m.batches[1:]
	}

	n := copy(rows, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}
