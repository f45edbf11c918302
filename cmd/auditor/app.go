package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fintelligent/auditor/config"
	"github.com/fintelligent/auditor/internal/audit"
	"github.com/fintelligent/auditor/internal/embedding"
	"github.com/fintelligent/auditor/internal/index"
	"github.com/fintelligent/auditor/internal/ingest"
	srv "github.com/fintelligent/auditor/internal/server"
	"github.com/fintelligent/auditor/internal/store"
	"github.com/fintelligent/auditor/internal/trace"
	"github.com/fintelligent/auditor/provider"
)

// app bundles the wired components the subcommands share.
type app struct {
	engine   *audit.Engine
	pipeline *ingest.Pipeline
	index    *index.Index
	store    *store.Store
	logger   *log.Logger
}

// buildApp wires the whole stack from config: provider (or degraded
// mode), embedder, hybrid index, ingestion pipeline, store, workflow,
// trace store and engine.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := log.New(log.Writer(), "[AUDITOR] ", log.LstdFlags)

	prov, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		if !errors.Is(err, provider.ErrNotConfigured) {
			return nil, err
		}
		logger.Printf("no llm provider configured, running in deterministic mode")
		prov = nil
	}

	emb := embedding.New(prov, cfg.Retrieval.EmbeddingDimensions)
	ix := index.New(emb)
	pipeline := ingest.NewPipeline(ix, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap,
		log.New(log.Writer(), "[INGEST] ", log.LstdFlags))

	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	resolver := audit.NewResolver(st, log.New(log.Writer(), "[RESOLVER] ", log.LstdFlags))
	synth := audit.NewSynthesizer(prov, log.New(log.Writer(), "[SYNTH] ", log.LstdFlags))
	workflow := audit.NewWorkflow(resolver, ix, synth, cfg.Retrieval.TopK,
		log.New(log.Writer(), "[WORKFLOW] ", log.LstdFlags))

	var traces trace.Store
	if cfg.Storage.Redis.Host != "" {
		traces = trace.NewRedisStore(
			fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.TTL)
	} else {
		traces = trace.NewMemoryStore(cfg.Storage.Redis.TTL)
	}

	engine := audit.NewEngine(workflow, traces, log.New(log.Writer(), "[ENGINE] ", log.LstdFlags))

	return &app{engine: engine, pipeline: pipeline, index: ix, store: st, logger: logger}, nil
}

// loadDocuments scans the data directory into the index if it exists.
func (a *app) loadDocuments(ctx context.Context, dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		a.logger.Printf("data dir %s not available, starting with an empty index: %v", dir, err)
		return
	}
	n, err := a.pipeline.ScanDir(ctx, dir)
	if err != nil {
		a.logger.Printf("initial scan of %s: %v", dir, err)
	}
	a.logger.Printf("indexed %d chunks from %s", n, dir)
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.loadDocuments(ctx, cfg.Ingest.DataDir)

	if cfg.Ingest.Watch {
		watcher, err := ingest.NewWatcher(a.pipeline, log.New(log.Writer(), "[WATCH] ", log.LstdFlags))
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Watch(ctx, cfg.Ingest.DataDir); err != nil {
			return err
		}
	}
	if cfg.Ingest.RescanCron != "" {
		sched, err := ingest.NewScheduler(a.pipeline, cfg.Ingest.DataDir, cfg.Ingest.RescanCron,
			log.New(log.Writer(), "[RESCAN] ", log.LstdFlags))
		if err != nil {
			return fmt.Errorf("invalid ingest.rescan_cron: %w", err)
		}
		sched.Start(ctx)
	}

	server := srv.New(a.engine, a.pipeline, cfg.Ingest, log.New(log.Writer(), "[HTTP] ", log.LstdFlags))
	return server.Run(addr)
}

// runIngest validates and indexes the given files (or the whole data
// dir) and reports chunk counts. The index is in-memory, so this is a
// dry run of what serve does at startup.
func runIngest(ctx context.Context, cfg *config.Config, dir string, files []string) error {
	emb := embedding.New(nil, cfg.Retrieval.EmbeddingDimensions)
	ix := index.New(emb)
	pipeline := ingest.NewPipeline(ix, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap,
		log.New(log.Writer(), "[INGEST] ", log.LstdFlags))

	if len(files) > 0 {
		total := 0
		for _, f := range files {
			n, err := pipeline.ProcessFile(ctx, f)
			if err != nil {
				return err
			}
			total += n
		}
		fmt.Printf("indexed %d chunks from %d files\n", total, len(files))
		return nil
	}

	n, err := pipeline.ScanDir(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d chunks from %s\n", n, dir)
	return nil
}

func runAsk(ctx context.Context, cfg *config.Config, args []string, threadID string) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.loadDocuments(ctx, cfg.Ingest.DataDir)

	answer, _, err := a.engine.Ask(ctx, strings.Join(args, " "), threadID)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, csvPath string) error {
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	n, err := st.SeedFromCSV(ctx, csvPath)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("invoices table already has data, nothing seeded")
		return nil
	}
	fmt.Printf("seeded %d invoices from %s\n", n, csvPath)
	return nil
}
