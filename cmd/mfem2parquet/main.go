package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/thanos-io/objstore"
	"gopkg.in/alecthomas/kingpin.v2"

	"fpetkovski/mfem-parquet/convert"
	"fpetkovski/mfem-parquet/extract"
	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/pkg/write"
	"fpetkovski/mfem-parquet/schema"
)

func main() {
	app := kingpin.New("mfem2parquet", "Convert MFEM/Laghos meshes to Parquet tables.")
	opts := Options{}
	opts.BindFlags(app)

	convertCmd := app.Command("convert", "Convert a local mesh directory.").Default()
	meshDir := convertCmd.Arg("mesh-dir", "Directory with the mesh, e, rho and v files.").Required().ExistingDir()
	outDir := convertCmd.Arg("out-dir", "Directory to write the tables to.").Required().String()

	translateCmd := app.Command("translate", "Convert mesh directories from a bucket and upload the tables.")
	translateOpts := TranslateOptions{}
	translateOpts.BindFlags(translateCmd)

	dumpCmd := app.Command("dump", "Print the flat rows of a local mesh directory.")
	dumpDir := dumpCmd.Arg("mesh-dir", "Directory with the mesh, e, rho and v files.").Required().ExistingDir()
	dumpLimit := dumpCmd.Flag("limit", "Maximum number of rows to print. Zero prints all.").Default("0").Int()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := newLogger(opts.LogLevel)
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if opts.HTTPListen != "" {
		go serveMetrics(logger, opts.HTTPListen, reg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case convertCmd.FullCommand():
		err = runConvert(ctx, logger, reg, opts, *meshDir, *outDir)
	case translateCmd.FullCommand():
		err = runTranslate(ctx, logger, reg, opts, translateOpts)
	case dumpCmd.FullCommand():
		err = runDump(*dumpDir, *dumpLimit, os.Stdout)
	}
	if err != nil {
		level.Error(logger).Log("msg", "command failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}

func newLogger(lvl string) log.Logger {
	var filter level.Option
	switch lvl {
	case "debug":
		filter = level.AllowDebug()
	case "warn":
		filter = level.AllowWarn()
	case "error":
		filter = level.AllowError()
	default:
		filter = level.AllowInfo()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, filter)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func serveMetrics(logger log.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	level.Info(logger).Log("msg", "serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		level.Error(logger).Log("msg", "metrics server stopped", "err", err)
	}
}

func runConvert(ctx context.Context, logger log.Logger, reg prometheus.Registerer, opts Options, meshDir, outDir string) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	src, err := mesh.OpenLaghos(meshDir)
	if err != nil {
		return err
	}
	defer src.Close()

	level.Info(logger).Log("msg", "converting mesh", "dir", meshDir,
		"elements", src.NumElements(), "vertices", src.NumVertices(), "dimension", src.Dimension(),
		"estimated_rows", mesh.EstimateRows(src), "schema", cfg.Schema, "format", cfg.Format)

	writerOpts := []write.WriterOption{write.WithMetrics(write.NewMetrics(reg))}
	if opts.Progress {
		bar := progressbar.Default(int64(src.NumElements()), "elements")
		writerOpts = append(writerOpts, write.WithProgress(func(elements int) {
			bar.Add(elements)
		}))
	}

	result, err := convert.Convert(ctx, src, outDir, cfg, writerOpts...)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "converted mesh", "elements", result.Elements, "batches", result.Batches, "files", len(result.Files))
	return nil
}

func runTranslate(ctx context.Context, logger log.Logger, reg prometheus.Registerer, opts Options, translateOpts TranslateOptions) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	meshBucket, err := openBucket(ctx, logger, translateOpts.MeshBucketConfigFile, "mfem2parquet-meshes")
	if err != nil {
		return err
	}
	defer meshBucket.Close()
	outBucket, err := openBucket(ctx, logger, translateOpts.OutBucketConfigFile, "mfem2parquet-tables")
	if err != nil {
		return err
	}
	defer outBucket.Close()

	meshes := translateOpts.Meshes
	if len(meshes) == 0 && translateOpts.GCSBucket != "" {
		gcsClient, err := gcsStorage.NewClient(ctx)
		if err != nil {
			return errors.Wrap(err, "failed creating gcs client")
		}
		defer gcsClient.Close()

		fetcher := convert.NewMeshFetcher(logger, gcsClient, translateOpts.GCSBucket)
		meshes, err = fetcher.FetchMeshes(ctx, translateOpts.GCSPrefix, translateOpts.minTimestamp())
		if err != nil {
			return err
		}
	}
	level.Info(logger).Log("msg", "translating meshes", "count", len(meshes))

	translator := convert.NewTranslator(logger, meshBucket, outBucket, translateOpts.DataDir, cfg, write.NewMetrics(reg))
	for _, name := range meshes {
		if err := translator.Translate(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func openBucket(ctx context.Context, logger log.Logger, configFile, component string) (objstore.Bucket, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading bucket config")
	}
	cfg, err := convert.ParseBucketConfig(content)
	if err != nil {
		return nil, err
	}
	return convert.NewBucket(ctx, logger, cfg, component)
}

func runDump(meshDir string, limit int, out io.Writer) error {
	src, err := mesh.OpenLaghos(meshDir)
	if err != nil {
		return err
	}
	defer src.Close()

	session, err := extract.NewSession(src, schema.KindFlat)
	if err != nil {
		return err
	}
	defer session.Close()

	reader, err := extract.NewRowReader(session, 4*1024)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	fmt.Fprintln(w, "element_id\tvertex_id\tx\ty\tz\te\trho\tv_x\tv_y\tv_z")

	rows := make([]schema.FlatRow, 1024)
	var printed int
	for {
		n, err := reader.ReadRows(rows)
		for _, r := range rows[:n] {
			if limit > 0 && printed == limit {
				return nil
			}
			fmt.Fprintf(w, "%d\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
				r.ElementID, r.VertexID, r.Coords[0], r.Coords[1], r.Coords[2],
				r.Energy, r.Density, r.Velocity[0], r.Velocity[1], r.Velocity[2])
			printed++
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
