package bootstrap

import (
	"context"
	"log"
	"time"

	"dealdocs-be/internal/config"
	"dealdocs-be/internal/controller"
	"dealdocs-be/internal/pkg/logger"
	"dealdocs-be/internal/repository/unitofwork"
	"dealdocs-be/internal/service"
	"dealdocs-be/pkg/embedding"
	"dealdocs-be/pkg/events"
	"dealdocs-be/pkg/generate"
	"dealdocs-be/pkg/ingest"
	"dealdocs-be/pkg/llm/factory"
	"dealdocs-be/pkg/storage"
	"dealdocs-be/pkg/summarize"

	pktNats "dealdocs-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DealController     controller.IDealController
	DocumentController controller.IDocumentController
	RunController      controller.IRunController

	// Background Services (Exposed for main.go to run)
	IngestQueue *ingest.Queue
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	embeddingProvider, err := embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Model: %s (%d dimensions)", embeddingProvider.ModelName(), embeddingProvider.Dimensions())

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	store, err := storage.NewLocalBackend(cfg.Storage.DataRoot)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize storage backend: %v", err)
	}

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	var eventPublisher ingest.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	// Summary cache: Redis when configured, in-process otherwise.
	var summaryCache summarize.Cache
	if cfg.Summary.CacheBackend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		summaryCache = summarize.NewRedisCache(rdb, 30*24*time.Hour)
		log.Printf("[INFO] Using Summary Cache: REDIS")
	} else {
		summaryCache = summarize.NewMemoryCache(30 * 24 * time.Hour)
		log.Printf("[INFO] Using Summary Cache: MEMORY")
	}

	summarizer := summarize.NewSummarizer(llmProvider, summaryCache, log.Default())

	// 5. Pipeline & Orchestrator
	pipeline := ingest.NewPipeline(
		uowFactory,
		store,
		embeddingProvider,
		llmProvider,
		eventPublisher,
		cfg.Ingest.ChunkSize,
		cfg.Ingest.ChunkOverlap,
	)
	queue := ingest.NewQueue(
		pubSub,
		cfg.Ingest.TopicName,
		cfg.Ingest.Workers,
		uowFactory,
		pipeline,
	)

	orchestrator := generate.NewOrchestrator(
		uowFactory,
		embeddingProvider,
		llmProvider,
		generate.DefaultSections(),
	)

	// 6. Pipeline Audit Trail
	// Every published event lands in a rotated file for later inspection.
	if natsSub != nil {
		auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
		err := natsSub.Subscribe(pktNats.SubjectWildcard, "pipeline-audit", func(ctx context.Context, event events.Event) error {
			auditLogger.Info("pipeline", event.EventType(), event.Payload())
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to start pipeline audit subscriber: %v", err)
		}
	}

	sysLogger.Info("bootstrap", "Container initialized", map[string]interface{}{
		"embedding_model": embeddingProvider.ModelName(),
		"llm_provider":    cfg.Ai.LLMProvider,
		"ingest_workers":  cfg.Ingest.Workers,
		"summary_cache":   cfg.Summary.CacheBackend,
	})

	// 7. Services
	dealService := service.NewDealService(uowFactory, store, queue, summarizer, service.UploadLimits{
		MaxNativeTokens:   cfg.Ingest.MaxNativeTokens,
		MaxNativePDFBytes: cfg.Ingest.MaxNativePDFBytes,
		MaxNativePDFPages: cfg.Ingest.MaxNativePDFPages,
	})
	documentService := service.NewDocumentService(uowFactory, store, queue, summarizer)
	runService := service.NewRunService(uowFactory, store, orchestrator, eventPublisher)

	// 8. Controllers
	return &Container{
		DealController:     controller.NewDealController(dealService),
		DocumentController: controller.NewDocumentController(documentService),
		RunController:      controller.NewRunController(runService),

		IngestQueue: queue,
	}
}
