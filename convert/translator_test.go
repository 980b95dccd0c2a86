package convert_test

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"

	"fpetkovski/mfem-parquet/convert"
	"fpetkovski/mfem-parquet/db"
	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/pkg/write"
)

func uploadMesh(t *testing.T, bucket objstore.Bucket, name string, files ...string) {
	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(twoQuadsDir, file))
		require.NoError(t, err)
		require.NoError(t, bucket.Upload(context.Background(), path.Join(name, file), bytes.NewReader(content)))
	}
}

func TestTranslator(t *testing.T) {
	ctx := context.Background()
	meshBucket := objstore.NewInMemBucket()
	outBucket := objstore.NewInMemBucket()
	uploadMesh(t, meshBucket, "two_quads", mesh.LaghosFiles...)

	reg := prometheus.NewRegistry()
	dataDir := t.TempDir()
	cfg := convert.DefaultConfig()
	cfg.BufferRows = 8
	cfg.BatchElements = 1
	translator := convert.NewTranslator(log.NewNopLogger(), meshBucket, outBucket, dataDir, cfg, write.NewMetrics(reg))
	require.NoError(t, translator.Translate(ctx, "two_quads"))

	tables, err := convert.UploadedTables(ctx, outBucket, "two_quads")
	require.NoError(t, err)
	require.Equal(t, []string{"two_quads/mesh.parquet"}, tables)
	require.NoDirExists(t, filepath.Join(dataDir, "two_quads"))

	reader, err := db.OpenFileReader(ctx, "two_quads/mesh", outBucket)
	require.NoError(t, err)
	require.Len(t, reader.MetaData().RowGroups, 2)

	file, err := reader.Open()
	require.NoError(t, err)
	require.Equal(t, int64(8), file.NumRows())

	groups, err := reader.RowGroups()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	require.Equal(t, 2.0, counterValue(t, reg, "mfem_parquet_batches_written_total"))
	require.Equal(t, 2.0, counterValue(t, reg, "mfem_parquet_elements_extracted_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestTranslatorMissingField(t *testing.T) {
	ctx := context.Background()
	meshBucket := objstore.NewInMemBucket()
	uploadMesh(t, meshBucket, "two_quads", mesh.MeshFile, mesh.EnergyFile, mesh.DensityFile)

	dataDir := t.TempDir()
	translator := convert.NewTranslator(log.NewNopLogger(), meshBucket, objstore.NewInMemBucket(), dataDir, convert.DefaultConfig(), nil)
	err := translator.Translate(ctx, "two_quads")
	require.Error(t, err)
	require.True(t, meshBucket.IsObjNotFoundErr(errors.Cause(err)))
	require.DirExists(t, filepath.Join(dataDir, "two_quads"))
}
