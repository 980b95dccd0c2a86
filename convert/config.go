package convert

import (
	"context"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/filesystem"
	"github.com/thanos-io/objstore/providers/gcs"
	"gopkg.in/yaml.v3"

	"fpetkovski/mfem-parquet/schema"
)

const (
	FormatParquet = "parquet"
	FormatArrow   = "arrow"
)

// Config controls how a mesh is converted.
type Config struct {
	// Schema is either flat or normalized.
	Schema string `yaml:"schema"`
	// Format is either parquet or arrow.
	Format string `yaml:"format"`
	// BufferRows is the row capacity of one batch.
	BufferRows int `yaml:"buffer_rows"`
	// BatchElements caps the number of elements per batch. Zero means no cap.
	BatchElements   int  `yaml:"batch_elements"`
	BloomFilterBits uint `yaml:"bloom_filter_bits"`
	PageBufferSize  int  `yaml:"page_buffer_size"`
}

func DefaultConfig() Config {
	return Config{
		Schema:          schema.KindFlat.String(),
		Format:          FormatParquet,
		BufferRows:      64 * 1024,
		BloomFilterBits: 10,
		PageBufferSize:  8 * 1024,
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed opening config file")
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed parsing config file %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Kind() (schema.Kind, error) {
	return schema.ParseKind(c.Schema)
}

func (c Config) Validate() error {
	if _, err := c.Kind(); err != nil {
		return err
	}
	switch c.Format {
	case FormatParquet, FormatArrow:
	default:
		return errors.Errorf("unknown output format %q", c.Format)
	}
	if c.BufferRows < schema.MaxElementVertices {
		return errors.Errorf("buffer_rows must be at least %d, got %d", schema.MaxElementVertices, c.BufferRows)
	}
	if c.BatchElements < 0 {
		return errors.Errorf("batch_elements must not be negative, got %d", c.BatchElements)
	}
	return nil
}

// BucketConfig selects an object store provider, in the thanos objstore
// format.
type BucketConfig struct {
	Type   string    `yaml:"type"`
	Config yaml.Node `yaml:"config"`
}

type filesystemConfig struct {
	Directory string `yaml:"directory"`
}

func ParseBucketConfig(content []byte) (BucketConfig, error) {
	var cfg BucketConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, errors.Wrap(err, "failed parsing bucket config")
	}
	return cfg, nil
}

func NewBucket(ctx context.Context, logger log.Logger, cfg BucketConfig, component string) (objstore.Bucket, error) {
	switch strings.ToUpper(cfg.Type) {
	case "FILESYSTEM":
		var fsConfig filesystemConfig
		if err := cfg.Config.Decode(&fsConfig); err != nil {
			return nil, errors.Wrap(err, "failed parsing filesystem bucket config")
		}
		return filesystem.NewBucket(fsConfig.Directory)
	case "GCS":
		conf, err := yaml.Marshal(&cfg.Config)
		if err != nil {
			return nil, err
		}
		return gcs.NewBucket(ctx, logger, conf, component)
	}
	return nil, errors.Errorf("unsupported bucket type %q", cfg.Type)
}
