// Package main is the vectorstore CLI entry point: index files into a local store and
// search it. No server, no network protocol — everything here talks to the library
// directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/localvector/vectorstore"
	"github.com/localvector/vectorstore/internal/cache"
	"github.com/localvector/vectorstore/internal/config"
	"github.com/localvector/vectorstore/internal/embedding"
	"github.com/localvector/vectorstore/pkg/vsutil"
)

var version = "dev"

const defaultConfigPath = "./vectorstore.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("vectorstore version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`vectorstore - local semantic document store

Usage:
  vectorstore index <path> [flags]     index a file or directory into the store
  vectorstore search <query> [flags]   search the store
  vectorstore delete <id> [flags]      delete a chunk by id
  vectorstore status [flags]           report the store path and chunk count
  vectorstore watch [flags]            watch configured directories and keep the store in sync
  vectorstore version                  print the version
  vectorstore help                     print this message

Flags common to all subcommands:
  -config string   path to a vectorstore.yaml config file (default "./vectorstore.yaml")
`)
}

// loadConfig reads path if it exists, otherwise returns defaults. A CLI invocation
// against a brand-new directory should not require a config file to exist first.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return config.Load(path)
}

// openStore opens (creating if necessary) the store named by cfg.Store.Path, wired
// with the embedder cfg.Embedding describes.
func openStore(cfg *config.Config, logger *zap.Logger) (*vectorstore.Store, error) {
	emb, err := buildEmbedder(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	return vectorstore.CreateOrOpen(cfg.Store.Path,
		vectorstore.WithLogger(logger),
		vectorstore.WithEmbedder(emb),
	)
}

// buildEmbedder wires an embedding.Facade over an ONNX evaluator when both a model id
// and a model URL are configured and its artifact can be acquired, falling back to the deterministic hash
// evaluator otherwise (e.g. in environments built without ONNX runtime support).
func buildEmbedder(cfg *config.Config, logger *zap.Logger) (vectorstore.Embedder, error) {
	modelsDir := cfg.Embedding.ModelsDir
	if modelsDir == "" {
		dir, err := embedding.DefaultModelsDir()
		if err != nil {
			return nil, err
		}
		modelsDir = dir
	}

	var eval embedding.Evaluator
	if cfg.Embedding.ModelID != "" && cfg.Embedding.ModelURL != "" {
		mgr := embedding.NewModelManager(modelsDir, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		path, err := mgr.Ensure(ctx, cfg.Embedding.ModelID, cfg.Embedding.ModelURL, nil)
		if err == nil {
			onnxEval, onnxErr := embedding.NewONNXEvaluator(path, cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens)
			if onnxErr == nil {
				eval = onnxEval
			} else {
				logger.Warn("onnx evaluator unavailable, falling back to hash evaluator", zap.Error(onnxErr))
			}
		} else {
			logger.Warn("model acquisition failed, falling back to hash evaluator", zap.Error(err))
		}
	}
	if eval == nil {
		eval = embedding.NewHashEvaluator(cfg.Embedding.Dimensions)
	}

	cacheDir := filepath.Join(filepath.Dir(modelsDir), "cache", "embeddings")
	cacheSize := cfg.Embedding.CacheSize
	if cacheSize <= 0 {
		cacheSize = 10000
	}
	return embedding.NewFacade(eval, cache.New(cacheSize, cacheDir, logger)), nil
}

func printConfigError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("config error:"), err)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	maxChunkSize := fs.Int("max-chunk-size", 0, "override configured max chunk size")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vectorstore index <path> [flags]")
		os.Exit(1)
	}
	target := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}
	logger, _ := vsutil.NewLogger(cfg.Debug)
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("open failed:"), err)
		os.Exit(1)
	}
	defer store.Close()

	opts := vectorstore.AddDocumentOptions{Chunking: chunkOptionsFromConfig(cfg)}
	if *maxChunkSize > 0 {
		opts.Chunking.MaxChunkSize = *maxChunkSize
	}

	info, statErr := os.Stat(target)
	ctx := context.Background()
	var ids []string
	if statErr == nil && info.IsDir() {
		ids, err = store.AddDocuments(ctx, target, opts)
	} else {
		ids, err = store.AddDocument(ctx, target, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("index failed:"), err)
		os.Exit(1)
	}
	color.Green("indexed %d chunk(s) from %s", len(ids), target)
}

func chunkOptionsFromConfig(cfg *config.Config) vectorstore.ChunkOptions {
	opts := vectorstore.DefaultChunkOptions()
	if cfg.Chunking.MaxChunkSize > 0 {
		opts.MaxChunkSize = cfg.Chunking.MaxChunkSize
	}
	if cfg.Chunking.MinChunkSize > 0 {
		opts.MinChunkSize = cfg.Chunking.MinChunkSize
	}
	if cfg.Chunking.OverlapSize > 0 {
		opts.OverlapSize = cfg.Chunking.OverlapSize
	}
	switch cfg.Chunking.Strategy {
	case "semantic":
		opts.Strategy = vectorstore.Semantic
	case "structural":
		opts.Strategy = vectorstore.Structural
	case "hybrid", "":
		opts.Strategy = vectorstore.Hybrid
	}
	return opts
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vectorstore search <query...> [flags]")
		os.Exit(1)
	}
	query := joinArgs(fs.Args())

	cfg, err := loadConfig(*configPath)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}
	logger, _ := vsutil.NewLogger(cfg.Debug)
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("open failed:"), err)
		os.Exit(1)
	}
	defer store.Close()

	results, err := store.SearchText(context.Background(), query, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("search failed:"), err)
		os.Exit(1)
	}
	printResults(results)
}

func printResults(results []vectorstore.SearchResult) {
	bold := color.New(color.Bold).SprintFunc()
	score := color.New(color.FgCyan).SprintFunc()
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range results {
		fmt.Printf("%s %s  %s\n", bold(fmt.Sprintf("%d.", i+1)), score(fmt.Sprintf("%.4f", r.Score)), r.Record.ID)
		fmt.Printf("   %s\n\n", vsutil.Truncate(r.Record.Content, 200))
	}
}

func joinArgs(args []string) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += " "
		}
		s += a
	}
	return s
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vectorstore delete <id> [flags]")
		os.Exit(1)
	}
	id := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}
	logger, _ := vsutil.NewLogger(cfg.Debug)
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("open failed:"), err)
		os.Exit(1)
	}
	defer store.Close()

	ok, err := store.Delete(context.Background(), id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("delete failed:"), err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("no such id: %s\n", id)
		os.Exit(1)
	}
	color.Green("deleted %s", id)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}
	logger, _ := vsutil.NewLogger(cfg.Debug)
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("open failed:"), err)
		os.Exit(1)
	}
	defer store.Close()

	ids, err := store.AllIDs(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("status failed:"), err)
		os.Exit(1)
	}
	fmt.Printf("store: %s\n", store.Path())
	fmt.Printf("chunks: %d\n", len(ids))
	fmt.Printf("embedding dimensions: %d\n", vectorstore.Dimensions)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}
	if len(cfg.Watch.Directories) == 0 {
		fmt.Fprintln(os.Stderr, "no watch.directories configured in", *configPath)
		os.Exit(1)
	}
	logger, _ := vsutil.NewLogger(cfg.Debug)
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("open failed:"), err)
		os.Exit(1)
	}
	defer store.Close()

	w := store.Watch(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("watch failed:"), err)
		os.Exit(1)
	}
	w.SyncExistingFiles()
	color.Green("watching %v", cfg.Watch.Directories)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	fmt.Println("shutting down...")
}
