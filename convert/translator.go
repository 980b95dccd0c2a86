package convert

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
	"golang.org/x/sync/errgroup"

	"fpetkovski/mfem-parquet/db"
	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/pkg/write"
)

const OutputDir = "out"

// Translator downloads Laghos mesh directories from one bucket, converts
// them and uploads the tables to another bucket under the mesh name.
type Translator struct {
	dataDir    string
	meshBucket objstore.BucketReader
	outBucket  objstore.Bucket
	config     Config
	metrics    *write.Metrics
	logger     log.Logger
}

func NewTranslator(logger log.Logger, meshBucket objstore.BucketReader, outBucket objstore.Bucket, dataDir string, cfg Config, metrics *write.Metrics) *Translator {
	return &Translator{
		logger:     logger,
		meshBucket: meshBucket,
		outBucket:  outBucket,
		dataDir:    dataDir,
		config:     cfg,
		metrics:    metrics,
	}
}

func (t *Translator) Translate(ctx context.Context, name string) (translateErr error) {
	srcDir := filepath.Join(t.dataDir, name)
	defer func() {
		if translateErr == nil {
			os.RemoveAll(srcDir)
		}
	}()

	level.Info(t.logger).Log("msg", "downloading mesh", "mesh", name)
	if err := t.download(ctx, name, srcDir); err != nil {
		return errors.Wrapf(err, "failed downloading mesh %s", name)
	}

	level.Info(t.logger).Log("msg", "converting mesh", "mesh", name)
	result, err := t.convert(ctx, srcDir)
	if err != nil {
		return errors.Wrapf(err, "failed converting mesh %s", name)
	}
	level.Info(t.logger).Log("msg", "converted mesh", "mesh", name, "elements", result.Elements, "batches", result.Batches)

	level.Info(t.logger).Log("msg", "uploading tables", "mesh", name)
	if err := t.upload(ctx, name, filepath.Join(srcDir, OutputDir)); err != nil {
		return errors.Wrapf(err, "failed uploading mesh %s", name)
	}
	return nil
}

func (t *Translator) download(ctx context.Context, name, dst string) error {
	if err := os.MkdirAll(dst, 0o750); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(mesh.LaghosFiles))
	for _, file := range mesh.LaghosFiles {
		file := file
		g.Go(func() error {
			return downloadFile(ctx, t.meshBucket, path.Join(name, file), filepath.Join(dst, file))
		})
	}
	return g.Wait()
}

func downloadFile(ctx context.Context, bucket objstore.BucketReader, src, dst string) error {
	rc, err := bucket.Get(ctx, src)
	if err != nil {
		return errors.Wrapf(err, "get %s", src)
	}
	defer rc.Close()

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return errors.Wrapf(err, "copy %s", src)
	}
	return f.Close()
}

func (t *Translator) convert(ctx context.Context, srcDir string) (Result, error) {
	src, err := mesh.OpenLaghos(srcDir)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	return Convert(ctx, src, filepath.Join(srcDir, OutputDir), t.config, write.WithMetrics(t.metrics))
}

func (t *Translator) upload(ctx context.Context, name, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := t.uploadFile(ctx, filepath.Join(dir, file.Name()), path.Join(name, file.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) uploadFile(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	level.Debug(t.logger).Log("msg", "uploading file", "file", remotePath)
	return t.outBucket.Upload(ctx, remotePath, f)
}

// UploadedTables lists the table data files of a translated mesh.
func UploadedTables(ctx context.Context, bucket objstore.BucketReader, name string) ([]string, error) {
	var tables []string
	err := bucket.Iter(ctx, name+objstore.DirDelim, func(object string) error {
		if ext := path.Ext(object); ext == db.DataFileSuffix || ext == db.ArrowFileSuffix {
			tables = append(tables, object)
		}
		return nil
	})
	return tables, err
}
