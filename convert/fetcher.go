package convert

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"fpetkovski/mfem-parquet/mesh"
)

// MeshFetcher finds Laghos mesh directories in a GCS bucket.
type MeshFetcher struct {
	bucket string
	client *gcsStorage.Client
	logger log.Logger
}

func NewMeshFetcher(logger log.Logger, client *gcsStorage.Client, bucket string) *MeshFetcher {
	return &MeshFetcher{
		bucket: bucket,
		client: client,
		logger: logger,
	}
}

// FetchMeshes returns the directories under prefix whose mesh file was
// updated at or after minTimestamp and which contain every field file.
func (f *MeshFetcher) FetchMeshes(ctx context.Context, prefix string, minTimestamp int64) ([]string, error) {
	dirs, err := f.listMeshes(ctx, prefix, minTimestamp)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var complete []string

	var errGroup errgroup.Group
	errGroup.SetLimit(50)
	for _, dir := range dirs {
		dir := dir
		errGroup.Go(func() error {
			ok, err := f.hasFields(ctx, dir)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			mu.Lock()
			complete = append(complete, dir)
			mu.Unlock()
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(complete)
	return complete, nil
}

func (f *MeshFetcher) listMeshes(ctx context.Context, prefix string, minTimestamp int64) ([]string, error) {
	dirs := make([]string, 0)

	query := &gcsStorage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name", "Updated"}); err != nil {
		return nil, err
	}

	it := f.client.Bucket(f.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed listing bucket %s", f.bucket)
		}
		if attrs.Updated.Unix() < minTimestamp {
			continue
		}
		if !strings.HasSuffix(attrs.Name, "/"+mesh.MeshFile) {
			continue
		}
		dirs = append(dirs, path.Dir(attrs.Name))
	}
	return dirs, nil
}

func (f *MeshFetcher) hasFields(ctx context.Context, dir string) (bool, error) {
	for _, name := range []string{mesh.EnergyFile, mesh.DensityFile, mesh.VelocityFile} {
		object := path.Join(dir, name)
		_, err := f.client.Bucket(f.bucket).Object(object).Retryer(gcsStorage.WithBackoff(gax.Backoff{
			Initial:    2 * time.Second,
			Max:        300 * time.Second,
			Multiplier: 3,
		})).Attrs(ctx)
		if err == gcsStorage.ErrObjectNotExist {
			level.Warn(f.logger).Log("msg", "skipping incomplete mesh", "dir", dir, "missing", name)
			return false, nil
		}
		if err != nil {
			return false, errors.Wrapf(err, "Object(%q).Attrs", object)
		}
	}
	return true, nil
}
