// Package main is the precedent CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/cli"
	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/indexer"
	"github.com/hyperjump/precedent/internal/metrics"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/search"
	"github.com/hyperjump/precedent/internal/server"
	"github.com/hyperjump/precedent/internal/storage"
	"github.com/hyperjump/precedent/internal/watcher"
	"github.com/hyperjump/precedent/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/precedent/config.yaml"

// drainGrace is how long a replaced engine stays open after a reload.
const drainGrace = 5 * time.Second

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitFatal   = 2
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present; when neither exists the built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// exitCode maps a command error to the process exit code. Configuration errors that no
// retry can fix (a model of the wrong width, another run holding the artifacts) are fatal.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var dimErr *embedding.DimensionMismatchError
	if errors.As(err, &dimErr) || errors.Is(err, embedding.ErrDimensionMismatch) || errors.Is(err, artifact.ErrLocked) ||
		errors.Is(err, embedding.ErrProviderUnavailable) || errors.Is(err, indexer.ErrIndexTypeUnavailable) {
		return exitFatal
	}
	return exitFailure
}

func main() {
	// .env is optional; it only supplies API keys named by api_key_env.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitFailure)
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "embed":
		err = runEmbed(args)
	case "build-index":
		err = runBuildIndex(args)
	case "search":
		err = runQuery("search", args)
	case "explain":
		err = runQuery("explain", args)
	case "similar":
		err = runQuery("similar", args)
	case "status":
		err = runStatus(args)
	case "server":
		err = runServer(args)
	case "version":
		fmt.Printf("precedent %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(exitFailure)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// commonFlags are accepted by every command that touches the corpus or artifacts.
type commonFlags struct {
	config    *string
	debug     *bool
	corpus    *string
	artifacts *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		config:    fs.String("config", defaultConfigPath, "config file path"),
		debug:     fs.Bool("debug", false, "enable debug logging"),
		corpus:    fs.String("corpus", "", "corpus JSONL path (overrides config)"),
		artifacts: fs.String("out", "", "artifacts directory (overrides config)"),
	}
}

// load resolves the config with flag overrides applied and builds the logger.
func (f *commonFlags) load() (*config.Config, *zap.Logger, error) {
	cfg, _, err := loadConfig(*f.config)
	if err != nil {
		return nil, nil, err
	}
	if *f.corpus != "" {
		cfg.Corpus.Path = *f.corpus
	}
	if *f.artifacts != "" {
		cfg.Artifacts.Dir = *f.artifacts
	}
	logger, err := utils.NewLogger(*f.debug || cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// Components holds what every command needs: the corpus snapshot and the base embedder.
type Components struct {
	Snapshot *corpus.Snapshot
	Embedder embedding.Embedder
	kv       *storage.RedisStore
}

// Close releases the embedder and the shared cache connection.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.kv != nil {
		_ = c.kv.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	snapshot, err := corpus.Load(ctx, cfg.Corpus.Path, corpus.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	c := &Components{Snapshot: snapshot}
	var kv embedding.KVStore
	if len(cfg.Embedding.Redis.Addrs) > 0 {
		rcfg, err := redisConfig(cfg.Embedding.Redis)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewRedisStore(rcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect embedding cache: %w", err)
		}
		c.kv = store
		kv = store
	}

	c.Embedder, err = embedding.New(cfg.Embedding, kv, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return c, nil
}

func redisConfig(rc config.RedisConfig) (storage.RedisConfig, error) {
	out := storage.RedisConfig{
		Addrs:    rc.Addrs,
		Username: rc.Username,
		Password: rc.Password,
		DB:       rc.DB,
	}
	if rc.TTL != "" {
		ttl, err := time.ParseDuration(rc.TTL)
		if err != nil {
			return out, fmt.Errorf("invalid embedding.redis.ttl %q: %w", rc.TTL, err)
		}
		out.TTL = ttl
	}
	return out, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runEmbed(args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	common := addCommonFlags(fs)
	interval := fs.Int("interval", 0, "rows per checkpoint window (default from config)")
	workers := fs.Int("workers", 0, "concurrent embedding calls (default from config)")
	build := fs.Bool("build", false, "build the vector index after embedding")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *interval > 0 {
		cfg.Indexing.CheckpointInterval = *interval
	}
	if *workers > 0 {
		cfg.Indexing.Workers = *workers
	}

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	paths := artifact.PathsFromConfig(cfg)
	meta, err := storage.NewSQLiteMetadataStore(paths.Metadata)
	if err != nil {
		return err
	}
	defer meta.Close()

	pipeline := indexer.NewPipeline(
		components.Snapshot,
		embedding.ForPassages(components.Embedder, cfg.Embedding),
		meta,
		paths,
		indexer.WithLogger(logger),
		indexer.WithCheckpointInterval(cfg.Indexing.CheckpointInterval),
		indexer.WithWorkers(cfg.Indexing.Workers),
		indexer.WithMaxTextLength(cfg.Corpus.MaxTextLength),
	)
	res, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	format := cli.ParseFormat(*output)
	if err := cli.WriteRunResult(os.Stdout, res, format); err != nil {
		return err
	}

	if *build {
		br, err := indexer.BuildIndex(ctx, components.Snapshot, meta, paths, cfg.Vector.IndexType, logger)
		if err != nil {
			return err
		}
		return writeBuildResult(br, format)
	}
	return nil
}

func runBuildIndex(args []string) error {
	fs := flag.NewFlagSet("build-index", flag.ExitOnError)
	common := addCommonFlags(fs)
	indexType := fs.String("type", "", "index type: memory or faiss (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *indexType != "" {
		cfg.Vector.IndexType = *indexType
	}

	ctx, stop := signalContext()
	defer stop()

	snapshot, err := corpus.Load(ctx, cfg.Corpus.Path, corpus.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	paths := artifact.PathsFromConfig(cfg)
	meta, err := storage.NewSQLiteMetadataStore(paths.Metadata)
	if err != nil {
		return err
	}
	defer meta.Close()

	br, err := indexer.BuildIndex(ctx, snapshot, meta, paths, cfg.Vector.IndexType, logger)
	if err != nil {
		return err
	}
	return writeBuildResult(br, cli.ParseFormat(*output))
}

func writeBuildResult(br *indexer.BuildResult, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		return cli.WriteJSON(os.Stdout, br)
	}
	fmt.Printf("Built %s index: %d rows x %d dims -> %s (%s)\n",
		br.Type, br.Rows, br.Dimensions, br.Path, br.Elapsed.Round(time.Millisecond))
	return nil
}

// printQueryUsage prints usage for the query commands.
func printQueryUsage(fs *flag.FlagSet, name string) {
	fmt.Fprintf(fs.Output(), "Usage: precedent %s [flags] <scenario>\n\n", name)
	fmt.Fprintf(fs.Output(), "The scenario is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
}

// buildQuery joins all positional args with spaces so multi-word scenarios
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the scenario
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so `precedent search "scenario" -k 3`
// would otherwise leave -k unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// runQuery serves search, explain and similar against the built index.
func runQuery(name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	common := addCommonFlags(fs)
	k := fs.Int("k", 0, "number of results (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	breakdown := fs.Bool("breakdown", false, "include the per-factor score breakdown (explain only)")
	fs.Usage = func() { printQueryUsage(fs, name) }
	_ = fs.Parse(argsReorder(args))

	scenario := buildQuery(fs.Args())
	if scenario == "" {
		printQueryUsage(fs, name)
		return models.ErrEmptyQuery
	}

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	engine, err := search.Open(ctx, cfg, components.Snapshot, components.Embedder, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	q := &models.RetrieveQuery{Query: scenario, K: *k}
	format := cli.ParseFormat(*output)
	switch name {
	case "explain":
		p, err := engine.ExplainTop(ctx, q)
		if err != nil {
			return err
		}
		if *breakdown && p.Candidate != nil {
			return cli.WritePrecedent(os.Stdout, p, engine.Breakdown(p.Candidate), format)
		}
		return cli.WritePrecedent(os.Stdout, p, nil, format)
	case "similar":
		resp, err := engine.Similar(ctx, q)
		if err != nil {
			return err
		}
		return cli.WriteResults(os.Stdout, resp, format)
	default:
		resp, err := engine.Retrieve(ctx, q)
		if err != nil {
			return err
		}
		return cli.WriteResults(os.Stdout, resp, format)
	}
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	snapshot, err := corpus.Load(ctx, cfg.Corpus.Path, corpus.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	paths := artifact.PathsFromConfig(cfg)
	meta, err := storage.NewSQLiteMetadataStore(paths.Metadata)
	if err != nil {
		return err
	}
	defer meta.Close()

	v, err := indexer.Verify(ctx, snapshot, meta, paths)
	if err != nil {
		return err
	}
	diskBytes, err := storage.DiskUsageBytes(paths.Dir)
	if err != nil {
		logger.Debug("disk usage unavailable", zap.String("dir", paths.Dir), zap.Error(err))
	}
	return cli.WriteVerification(os.Stdout, v, diskBytes, cli.ParseFormat(*output))
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	common := addCommonFlags(fs)
	watch := fs.Bool("watch", false, "reload when the index or corpus changes (also server.watch in config)")
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics.Register()

	ctx, stop := signalContext()
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	holder := search.NewHolder(nil)
	engine, err := search.Open(ctx, cfg, components.Snapshot, components.Embedder, logger)
	switch {
	case err == nil:
		holder.Swap(engine)
	case errors.Is(err, search.ErrIndexNotBuilt):
		// Serve health and status; retrieval answers 503 until the index is built and reloaded.
		logger.Warn("index not built, starting without an engine", zap.Error(err))
	default:
		return err
	}

	reload := func(ctx context.Context) error {
		snapshot, err := corpus.Load(ctx, cfg.Corpus.Path, corpus.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to load corpus: %w", err)
		}
		next, err := search.Open(ctx, cfg, snapshot, components.Embedder, logger)
		if err != nil {
			return err
		}
		if old := holder.Swap(next); old != nil {
			// In-flight queries may still hold the previous generation.
			time.AfterFunc(drainGrace, func() { _ = old.Close() })
		}
		logger.Info("engine reloaded", zap.Int("records", snapshot.Len()))
		return nil
	}

	if *watch || cfg.Server.Watch {
		paths := artifact.PathsFromConfig(cfg)
		watchSvc := watcher.NewWatcher(
			[]string{paths.Index, cfg.Corpus.Path},
			func(path string) {
				if err := reload(ctx); err != nil {
					logger.Warn("reload after change failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(holder, cfg, logger, server.WithReload(reload))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	if e := holder.Swap(nil); e != nil {
		_ = e.Close()
	}
	return nil
}

func printUsage() {
	fmt.Println(`precedent - Legal precedent retrieval

Usage:
  precedent embed [flags]              Embed the corpus (resumable, checkpointed)
  precedent build-index [flags]        Build the vector index from complete embeddings
  precedent search [flags] <scenario>  List ranked candidate precedents
  precedent explain [flags] <scenario> Select the strongest precedent and explain it
  precedent similar [flags] <scenario> List nearest cases by similarity only
  precedent status [flags]             Verify artifacts against the corpus
  precedent server [flags]             Start the HTTP server
  precedent version                    Show version
  precedent help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/precedent/config.yaml)
  --debug            Enable debug logging
  --corpus string    Corpus JSONL path (overrides config)
  --out string       Artifacts directory (overrides config)

Embed Flags:
  --interval int     Rows per checkpoint window
  --workers int      Concurrent embedding calls
  --build            Build the vector index after embedding

Query Flags (search, explain, similar):
  --k int            Number of results
  --output string    Output format: text or json (default: text)
  --breakdown        Include the per-factor score breakdown (explain)

Server Flags:
  --watch            Reload when the index or corpus changes

Exit codes:
  0  success
  1  runtime failure
  2  fatal configuration error (embedding dimension mismatch, artifacts locked)

Examples:
  precedent embed --corpus cases.jsonl --out ./artifacts
  precedent build-index
  precedent explain "company copied our registered trademark on packaging"
  precedent search --k 10 --output json "breach of licensing agreement"
  precedent status --output json`)
}
