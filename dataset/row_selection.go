package dataset

import "golang.org/x/exp/slices"

// RowSelection lists row ranges of a row group that can be skipped.
type RowSelection []SkipRange

type SkipRange struct {
	From int64
	To   int64
}

type PickRange struct {
	From int64
	To   int64
}

func (p PickRange) length() int64 {
	return p.To - p.From
}

func SelectAll() RowSelection {
	return nil
}

func (s RowSelection) Skip(from, to int64) RowSelection {
	return append(s, SkipRange{From: from, To: to})
}

// Picks returns the ranges of [0, numRows) not covered by any skip range,
// in ascending order.
func (s RowSelection) Picks(numRows int64) []PickRange {
	skips := slices.Clone(s)
	slices.SortFunc(skips, func(a, b SkipRange) bool {
		return a.From < b.From
	})

	var picks []PickRange
	var cursor int64
	for _, r := range skips {
		if r.From > cursor {
			picks = append(picks, PickRange{From: cursor, To: minInt64(r.From, numRows)})
		}
		cursor = maxInt64(cursor, r.To)
		if cursor >= numRows {
			break
		}
	}
	if cursor < numRows {
		picks = append(picks, PickRange{From: cursor, To: numRows})
	}
	return picks
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
