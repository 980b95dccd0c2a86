package main

import (
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"fpetkovski/mfem-parquet/convert"
)

type Options struct {
	// Path to a YAML file with conversion settings.
	ConfigFile string
	// Settings given on the command line take precedence over the file.
	Schema          string
	Format          string
	BufferRows      int
	BatchElements   int
	BloomFilterBits int

	LogLevel   string
	HTTPListen string
	Progress   bool
}

func (o *Options) BindFlags(app *kingpin.Application) {
	app.Flag("config.file", "YAML file with conversion settings.").
		Default("").StringVar(&o.ConfigFile)
	app.Flag("schema", "Output schema: flat or normalized.").
		Default("").StringVar(&o.Schema)
	app.Flag("format", "Output format: parquet or arrow.").
		Default("").EnumVar(&o.Format, "", convert.FormatParquet, convert.FormatArrow)
	app.Flag("buffer-rows", "Row capacity of one batch.").
		Default("0").IntVar(&o.BufferRows)
	app.Flag("batch-elements", "Maximum number of elements per batch.").
		Default("0").IntVar(&o.BatchElements)
	app.Flag("bloom-filter-bits", "Bits per value of id column bloom filters. Negative keeps the configured value.").
		Default("-1").IntVar(&o.BloomFilterBits)
	app.Flag("log.level", "Log filtering level.").
		Default("info").EnumVar(&o.LogLevel, "debug", "info", "warn", "error")
	app.Flag("http.listen", "Address to expose metrics on. Empty disables the server.").
		Default("").StringVar(&o.HTTPListen)
	app.Flag("progress", "Show a progress bar.").
		Default("true").BoolVar(&o.Progress)
}

// Config returns the config file merged with the flags that were set.
func (o *Options) Config() (convert.Config, error) {
	cfg := convert.DefaultConfig()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = convert.LoadConfig(o.ConfigFile); err != nil {
			return cfg, err
		}
	}
	if o.Schema != "" {
		cfg.Schema = o.Schema
	}
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if o.BufferRows > 0 {
		cfg.BufferRows = o.BufferRows
	}
	if o.BatchElements > 0 {
		cfg.BatchElements = o.BatchElements
	}
	if o.BloomFilterBits >= 0 {
		cfg.BloomFilterBits = uint(o.BloomFilterBits)
	}
	return cfg, cfg.Validate()
}

type TranslateOptions struct {
	MeshBucketConfigFile string
	OutBucketConfigFile  string
	DataDir              string
	Meshes               []string

	// GCS bucket to discover meshes in when no mesh is given.
	GCSBucket string
	GCSPrefix string
	MaxAge    time.Duration
}

func (o *TranslateOptions) BindFlags(cmd *kingpin.CmdClause) {
	cmd.Flag("mesh.bucket-config-file", "Bucket config of the mesh directories.").
		Required().StringVar(&o.MeshBucketConfigFile)
	cmd.Flag("out.bucket-config-file", "Bucket config to upload tables to.").
		Required().StringVar(&o.OutBucketConfigFile)
	cmd.Flag("data-dir", "Local scratch directory.").
		Default("./data").StringVar(&o.DataDir)
	cmd.Flag("mesh", "Mesh directory to translate. Repeatable.").
		StringsVar(&o.Meshes)
	cmd.Flag("gcs.bucket", "GCS bucket to discover mesh directories in.").
		Default("").StringVar(&o.GCSBucket)
	cmd.Flag("gcs.prefix", "Object prefix of discovered mesh directories.").
		Default("").StringVar(&o.GCSPrefix)
	cmd.Flag("max-age", "Max age of a discovered mesh directory.").
		Default("24h").DurationVar(&o.MaxAge)
}

// Calculate minimum timestamp a mesh file can have to be translated
func (o *TranslateOptions) minTimestamp() int64 {
	return time.Now().Unix() - int64(o.MaxAge/time.Second)
}
