package extract_test

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"fpetkovski/mfem-parquet/extract"
	"fpetkovski/mfem-parquet/schema"
)

func TestRowReader(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := randomMesh(t, rng, 100, 40, 3)
	expected := extractAll(t, m, schema.KindFlat, func() int { return 1 << 20 })

	for _, readSize := range []int{1, 3, 8, 64} {
		session, err := extract.NewSession(m, schema.KindFlat)
		require.NoError(t, err)
		reader, err := extract.NewRowReader(session, 16)
		require.NoError(t, err)

		var (
			got  []schema.FlatRow
			rows = make([]schema.FlatRow, readSize)
		)
		for {
			n, err := reader.ReadRows(rows)
			got = append(got, rows[:n]...)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			require.Equal(t, readSize, n)
		}
		require.Equal(t, expected.flat, got)
		require.NoError(t, session.Close())
	}
}

func TestRowReaderBufferTooSmall(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindFlat)
	require.NoError(t, err)
	reader, err := extract.NewRowReader(session, 3)
	require.NoError(t, err)

	_, err = reader.ReadRows(make([]schema.FlatRow, 1))
	require.ErrorIs(t, err, extract.ErrBufferTooSmall)
}

func TestRowReaderRequiresFlat(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindNormalized)
	require.NoError(t, err)

	_, err = extract.NewRowReader(session, 16)
	require.ErrorIs(t, err, schema.ErrSchemaMismatch)
}
