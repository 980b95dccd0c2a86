package dataset

import (
	"io"

	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"
)

const readBatchSize = 64

type SelectionResult struct {
	rowGroup parquet.RowGroup
	ranges   []PickRange
}

func (s SelectionResult) RowGroup() parquet.RowGroup {
	return s.rowGroup
}

func (s SelectionResult) Ranges() []PickRange {
	return s.ranges
}

func (s SelectionResult) NumRows() int64 {
	var numRows int64
	for _, r := range s.ranges {
		numRows += r.length()
	}
	return numRows
}

// Scanner finds the rows of a file whose integer id column equals a value.
// Row groups are pruned with bloom filters and pages with column index
// statistics before any row is decoded.
type Scanner struct {
	file      *parquet.File
	column    parquet.LeafColumn
	value     parquet.Value
	selectors RowSelectors
}

func NewEqualsScanner(file *parquet.File, column string, id int64) (*Scanner, error) {
	leaf, ok := file.Schema().Lookup(column)
	if !ok {
		return nil, errors.Errorf("column %s not found", column)
	}
	value := parquet.Int64Value(id)
	compare := leaf.Node.Type().Compare

	return &Scanner{
		file:   file,
		column: leaf,
		value:  value,
		selectors: RowSelectors{
			newBloomSelector(value),
			newStatsSelector(func(min, max parquet.Value) bool {
				return compare(min, value) <= 0 && compare(max, value) >= 0
			}),
		},
	}, nil
}

// Scan returns the row ranges that may hold matching rows.
func (s *Scanner) Scan() []SelectionResult {
	var results []SelectionResult
	for _, rowGroup := range s.file.RowGroups() {
		chunk := rowGroup.ColumnChunks()[s.column.ColumnIndex]
		picks := s.selectors.SelectRows(chunk).Picks(rowGroup.NumRows())
		if len(picks) == 0 {
			continue
		}
		results = append(results, SelectionResult{rowGroup: rowGroup, ranges: picks})
	}
	return results
}

// Rows returns every matching row in file order.
func (s *Scanner) Rows() ([]parquet.Row, error) {
	var matches []parquet.Row
	for _, result := range s.Scan() {
		var err error
		matches, err = s.readMatches(matches, result)
		if err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (s *Scanner) readMatches(matches []parquet.Row, result SelectionResult) ([]parquet.Row, error) {
	rows := result.rowGroup.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, readBatchSize)
	for _, pick := range result.ranges {
		if err := rows.SeekToRow(pick.From); err != nil {
			return nil, errors.Wrapf(err, "seeking to row %d", pick.From)
		}
		for remaining := pick.length(); remaining > 0; {
			batch := buf
			if remaining < int64(len(batch)) {
				batch = batch[:remaining]
			}
			n, err := rows.ReadRows(batch)
			for _, row := range batch[:n] {
				if row[s.column.ColumnIndex].Int64() == s.value.Int64() {
					matches = append(matches, row.Clone())
				}
			}
			remaining -= int64(n)
			if err != nil && err != io.EOF {
				return nil, err
			}
			if err == io.EOF || n == 0 {
				break
			}
		}
	}
	return matches, nil
}
