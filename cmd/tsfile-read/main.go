// Command tsfile-read drives the read path over a directory of tsfile-style
// chunk files for one series.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to components that take one via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tsfile/internal/catalog"
	"tsfile/internal/logging"
	"tsfile/internal/modset"
	"tsfile/internal/tsfile"
	"tsfile/internal/tsfile/codec"
	"tsfile/internal/tsfile/storage"
)

var version = "dev"

func main() {
	filter := logging.NewComponentFilterHandler(slog.NewTextHandler(os.Stderr, nil), slog.LevelInfo)
	if lvl := os.Getenv("TSFILE_DEBUG_COMPONENT"); lvl != "" {
		filter.SetLevel(lvl, slog.LevelDebug)
	}
	logger := slog.New(filter).With("component", "cli", "query_id", uuid.Must(uuid.NewV7()).String())

	rootCmd := &cobra.Command{
		Use:   "tsfile-read",
		Short: "Read path driver for a columnar time-series file engine",
	}

	var seriesPath string
	var cfg tsfile.ReaderConfig
	var unseqDir string

	scanCmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a series across every file in dir, optionally filtered by time range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lower, _ := cmd.Flags().GetInt64("after")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return runScan(ctx, logger, args[0], unseqDir, seriesPath, cfg, lower)
		},
	}
	scanCmd.Flags().Int64("after", 0, "only emit points with time > after")
	scanCmd.Flags().StringVar(&unseqDir, "unseq-dir", "", "directory of unsequential *.tsf files to priority-merge against dir (C8/C9); watched for changes via fsnotify")

	lookupCmd := &cobra.Command{
		Use:   "lookup <dir> <timestamp>",
		Short: "Point-lookup one timestamp in a series",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse timestamp: %w", err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return runLookup(ctx, logger, args[0], seriesPath, cfg, ts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&seriesPath, "series", "", "series path, e.g. root.sg.d1.s1")
	rootCmd.PersistentFlags().IntVar(&cfg.FileCacheCapacity, "cache-capacity", 32, "max open file handles in the FileReaderCache")
	rootCmd.PersistentFlags().IntVar(&cfg.DecompressBufferPoolSize, "buffer-pool-size", codec.DefaultBufferPoolSize, "gzip decompression scratch buffers to keep ready for reuse")
	if err := rootCmd.MarkPersistentFlagRequired("series"); err != nil {
		logger.Error("flag setup", "error", err)
		os.Exit(1)
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(scanCmd, lookupCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// discoverSequentialMetas builds ChunkMetaData for every *.tsf file in dir,
// in file-name order, treating them all as one sequential chain — a stand-in
// for a real catalogue's resource listing (§1: the metadata catalogue is an
// external collaborator). Probes run concurrently since each is an
// independent file read through the shared FileReaderCache.
func discoverSequentialMetas(ctx context.Context, dir string, loader storage.Loader) ([]*tsfile.ChunkMetaData, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.tsf"))
	if err != nil {
		return nil, err
	}
	metas := make([]*tsfile.ChunkMetaData, len(entries))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range entries {
		g.Go(func() error {
			meta, err := probeChunkMeta(path, loader)
			if err != nil {
				return fmt.Errorf("probe %s: %w", path, err)
			}
			metas[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metas, nil
}

// probeChunkMeta loads a file's leading chunk at offset 0 to build a
// ChunkMetaData from its header, since this CLI has no separate on-disk
// metadata index to consult. The result carries no Statistics and an
// unbounded time range, so it is never pruned at chunk level.
func probeChunkMeta(path string, loader storage.Loader) (*tsfile.ChunkMetaData, error) {
	c, err := loader.Load(path, 0, 0)
	if err != nil {
		return nil, err
	}
	return &tsfile.ChunkMetaData{
		MeasurementUID: c.Header.MeasurementUID,
		FilePath:       path,
		Offset:         0,
		DataType:       c.Header.DataType,
		Loader:         loader,
		StartTime:      0,
		EndTime:        1<<63 - 1,
	}, nil
}

func runScan(ctx context.Context, logger *slog.Logger, dir, unseqDir, seriesPath string, cfg tsfile.ReaderConfig, after int64) error {
	cache := storage.NewFileReaderCache(cfg.FileCacheCapacity)
	defer cache.Close()
	loader := storage.NewChunkLoader(cache)
	pool := codec.NewBufferPool(cfg.DecompressBufferPoolSize)

	metas, err := discoverSequentialMetas(ctx, dir, loader)
	if err != nil {
		return err
	}
	logger.Info("discovered chunks", "dir", dir, "series", seriesPath, "count", len(metas))

	var filter tsfile.Filter
	if after != 0 {
		filter = tsfile.TimeFilter{HasLower: true, Lower: after}
	}

	seqReader := tsfile.NewFileSeriesReaderWithPool(metas, filter, pool)

	// The sequential side always runs through the C9 SeriesReader facade,
	// exercising the real production path even with no unsequential files
	// (NewSeriesReaderWithConfig accepts a nil unseq side, §4.9). --unseq-dir
	// opts into the C6-C8 catalogue-backed merge stack.
	var unseqReader *tsfile.UnseqResourceMergeReader
	if unseqDir != "" {
		unseqReader, err = buildUnseqReader(ctx, logger, unseqDir, seriesPath, filter, loader, after)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
	}

	reader := tsfile.NewSeriesReaderWithConfig(seqReader, unseqReader, cfg)
	defer reader.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		ok, err := reader.HasNextBatch()
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if !ok {
			break
		}
		batch, err := reader.NextBatch()
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		for batch.HasNext() {
			if err := enc.Encode(pointJSON{Time: batch.CurrentTime(), Value: batch.CurrentValue().AsFloat64()}); err != nil {
				return err
			}
			batch.Advance()
		}
	}
	return nil
}

// buildUnseqReader scans unseqDir for *.tsf files, registers each as an
// Unsequential catalog.Resource, starts a fsnotify-backed catalog.Watcher
// that keeps the catalogue in step with rewritten or removed files, and
// feeds the resulting ResourceSource list into C8's UnseqResourceMergeReader
// (§4.8). The merge reader takes each resource's chunk metadata and loads
// its chunks when it is constructed here, so watcher updates made after
// that do not reach the running scan. The watcher runs until ctx is
// cancelled; the CLI has no separate tombstone store, so modsFor reports no
// modifications for any resource, same as the sequential side's absence of
// modset wiring.
func buildUnseqReader(ctx context.Context, logger *slog.Logger, unseqDir, seriesPath string, filter tsfile.Filter, loader storage.Loader, after int64) (*tsfile.UnseqResourceMergeReader, error) {
	entries, err := filepath.Glob(filepath.Join(unseqDir, "*.tsf"))
	if err != nil {
		return nil, err
	}

	var resources []*catalog.Resource
	for _, path := range entries {
		meta, err := probeChunkMeta(path, loader)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", path, err)
		}
		r := catalog.NewResource(path, catalog.Unsequential)
		r.Closed = true
		r.ChunkMetas = map[string][]*tsfile.ChunkMetaData{seriesPath: {meta}}
		resources = append(resources, r)
	}
	logger.Info("discovered unsequential resources", "dir", unseqDir, "series", seriesPath, "count", len(resources))

	cat := catalog.NewStaticCatalogue(resources)
	watcher, err := catalog.NewWatcher(cat, unseqDir, logger)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", unseqDir, err)
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("catalog watcher stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		watcher.Close() //nolint:errcheck
	}()

	sources := make([]tsfile.ResourceSource, len(resources))
	for i, r := range resources {
		sources[i] = r
	}

	resourceFilter := func(r tsfile.ResourceSource, series string, minTime, maxTime int64) bool {
		res, ok := r.(*catalog.Resource)
		if !ok {
			return true
		}
		return catalog.EndTimeFilter{}.Satisfies(res, series, minTime, maxTime)
	}
	noMods := func(string, string) ([]modset.Modification, error) { return nil, nil }

	return tsfile.NewUnseqResourceMergeReader(sources, seriesPath, filter, after, math.MaxInt64, resourceFilter, noMods)
}

func runLookup(ctx context.Context, logger *slog.Logger, dir, seriesPath string, cfg tsfile.ReaderConfig, ts int64) error {
	cache := storage.NewFileReaderCache(cfg.FileCacheCapacity)
	defer cache.Close()
	loader := storage.NewChunkLoader(cache)
	pool := codec.NewBufferPool(cfg.DecompressBufferPoolSize)

	metas, err := discoverSequentialMetas(ctx, dir, loader)
	if err != nil {
		return err
	}
	logger.Info("discovered chunks", "dir", dir, "series", seriesPath, "count", len(metas))

	reader := tsfile.NewPointLookupFileSeriesReaderWithPool(metas, pool)
	v, ok, err := reader.ValueAt(ts)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	if !ok {
		fmt.Println("null")
		return nil
	}
	fmt.Println(v.AsFloat64())
	return nil
}

type pointJSON struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}
