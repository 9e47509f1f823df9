package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/answerforge/rfp-engine/internal/config"
	"github.com/answerforge/rfp-engine/internal/core/ports"
	"github.com/answerforge/rfp-engine/internal/core/usecase"
	"github.com/answerforge/rfp-engine/internal/infrastructure/embedder"
	"github.com/answerforge/rfp-engine/internal/infrastructure/export"
	"github.com/answerforge/rfp-engine/internal/infrastructure/llm/openaiclient"
	"github.com/answerforge/rfp-engine/internal/infrastructure/queue/nats"
	"github.com/answerforge/rfp-engine/internal/infrastructure/recordfile"
	"github.com/answerforge/rfp-engine/internal/infrastructure/repository/postgres"
	"github.com/answerforge/rfp-engine/internal/infrastructure/resilience"
	"github.com/answerforge/rfp-engine/internal/infrastructure/storage/localfs"
	"github.com/answerforge/rfp-engine/internal/infrastructure/vector/qdrant"
)

// App holds every wired component shared by the api and worker binaries.
type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Jobs     ports.ImportJobStore
	Parser   ports.RecordFileParser
	Exporter *export.Exporter

	Indexer   ports.RecordIndexer
	Answers   ports.AnswerService
	Bulk      ports.BulkRunner
	UploadUC  *usecase.UploadImportUseCase
	ProcessUC ports.ImportProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	jobs := postgres.NewImportRepository(db)
	if err := jobs.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	exporter, err := export.NewExporter(cfg.ExportPath)
	if err != nil {
		return nil, fmt.Errorf("init exporter: %w", err)
	}

	guard := resilience.NewGuard(guardConfig(cfg))

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Guard:  guard,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llm := openaiclient.New(openaiclient.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		EmbedModel: cfg.OpenAIEmbedModel,
		ChatModel:  cfg.OpenAIChatModel,
		Timeout:    cfg.HTTPTimeout,
		Guard:      guard,
	})
	embed := embedder.NewProvider(llm, float64(cfg.EmbedRatePerSecond), cfg.EmbedRateBurst)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.HTTPTimeout)
	parser := recordfile.NewParser()

	indexer := usecase.NewRecordIndexUseCase(embed, vectorDB, logger)
	retriever := usecase.NewHybridRetriever(embed, vectorDB, cfg.RRFRankConstant, logger)
	synthesizer := usecase.NewAnswerSynthesizer(llm, embed, logger)
	pipeline := usecase.NewQueryPipeline(retriever, synthesizer, cfg.TopK, logger)
	bulk := usecase.NewBulkExecutor(pipeline, logger)

	uploadUC := usecase.NewUploadImportUseCase(jobs, storage, queue, logger)
	processUC := usecase.NewProcessImportUseCase(jobs, storage, parser, indexer, logger)

	return &App{
		Config: cfg,

		Queue:    queue,
		Jobs:     jobs,
		Parser:   parser,
		Exporter: exporter,

		Indexer:   indexer,
		Answers:   pipeline,
		Bulk:      bulk,
		UploadUC:  uploadUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// guardConfig translates breaker settings into the resilience config.
// Negative counts would wrap on conversion, so they clamp to zero and let the
// guard's defaults take over.
func guardConfig(cfg config.Config) resilience.Config {
	minRequests := cfg.BreakerMinRequests
	if minRequests < 0 {
		minRequests = 0
	}
	halfOpenMaxCalls := cfg.BreakerHalfOpenMaxCalls
	if halfOpenMaxCalls < 0 {
		halfOpenMaxCalls = 0
	}
	return resilience.Config{
		Enabled:          cfg.BreakerEnabled,
		MinRequests:      uint32(minRequests),
		FailureRatio:     cfg.BreakerFailureRatio,
		OpenTimeout:      cfg.BreakerOpenTimeout,
		HalfOpenMaxCalls: uint32(halfOpenMaxCalls),
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
