package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/config"
	"github.com/markdave123-py/resumex/internal/core"
	db "github.com/markdave123-py/resumex/internal/core/database"
	"github.com/markdave123-py/resumex/internal/core/extraction_engine"
	"github.com/markdave123-py/resumex/internal/core/llm"
	objectclient "github.com/markdave123-py/resumex/internal/core/object-client"
	"github.com/markdave123-py/resumex/internal/logger"
	"github.com/markdave123-py/resumex/internal/services"
)

// Constructors for the optional dependencies; tests replace them.
var (
	openDatabase = func(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
		return db.NewDatabaseClient(ctx, cfg)
	}
	openEmbedder = func(ctx context.Context, apiKey, model string) (embeddingClient, error) {
		return llm.NewGeminiEmbedder(ctx, apiKey, model)
	}
)

type embeddingClient interface {
	core.EmbeddingProvider
	Close() error
}

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Parser       *extraction_engine.Parser
	Resumes      *services.ResumeService
	Indexer      *services.EmbeddingIndexer
	Server       *Server

	log     *zap.Logger
	closers []func() error
}

// NewApp wires the service. Only the parser is mandatory: the database, S3
// archive and Gemini clients are attached when configured and reachable.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{log: log}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	parser, closeParser, err := NewParser(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Parser = parser
	a.closers = append(a.closers, closeParser)

	var embedder core.EmbeddingProvider
	if cfg.DatabaseURL != "" {
		dbClient, err := openDatabase(appCtx, cfg)
		if err != nil {
			log.Error("database unavailable, parsed résumés will not be stored", zap.Error(err))
		} else {
			a.DBClient = dbClient
			a.closers = append(a.closers, dbClient.Close)
			log.Info("database initialized and ready")
		}
	}

	if a.DBClient != nil && cfg.StorageEnabled() {
		objClient, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			log.Error("object storage unavailable, uploads will not be archived", zap.Error(err))
		} else {
			a.ObjectClient = objClient
			log.Info("object client initialized and ready", zap.String("bucket", objClient.Bucket()))
		}
	}

	if a.DBClient != nil && cfg.AIAPIKey != "" {
		geminiEmbedder, err := openEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		embedder = geminiEmbedder
		a.closers = append(a.closers, geminiEmbedder.Close)

		a.Indexer = services.NewEmbeddingIndexer(a.DBClient, geminiEmbedder, log)
		a.Indexer.Start(ctx, cfg.EmbedWorkers)
	}

	deps := services.ResumeDeps{
		Parser:   parser,
		DB:       a.DBClient,
		Storage:  a.ObjectClient,
		Bucket:   cfg.BucketName,
		Embedder: embedder,
		Log:      log,
	}
	if a.Indexer != nil {
		deps.Indexer = a.Indexer
	}
	a.Resumes = services.NewResumeService(deps)
	a.Server = NewServer(cfg, a.Resumes, log)

	return a, nil
}

// NewParser builds the extraction pipeline from cfg: the skills vocabulary
// from SKILLS_FILE and, with a Gemini key, an LLM-backed entity recognizer.
// The returned close func releases the Gemini client.
func NewParser(ctx context.Context, cfg *config.Config, log *zap.Logger) (*extraction_engine.Parser, func() error, error) {
	log = logger.OrNop(log)
	noop := func() error { return nil }

	vocab := extraction_engine.DefaultVocabulary()
	if cfg.SkillsFile != "" {
		v, err := extraction_engine.LoadVocabulary(cfg.SkillsFile)
		if err != nil {
			return nil, noop, fmt.Errorf("load skills: %w", err)
		}
		vocab = v
		log.Info("loaded skills vocabulary", zap.String("path", cfg.SkillsFile), zap.Int("entries", v.Len()))
	}

	var recognizer core.EntityRecognizer = extraction_engine.NoopRecognizer{}
	closeFn := noop
	if cfg.AIAPIKey != "" {
		gen, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, noop, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		recognizer = llm.NewEntityRecognizer(gen, cfg.NERTimeout)
		closeFn = gen.Close
	} else {
		log.Info("no GEMINI_API_KEY, names come from the first-line heuristic")
	}

	extractor := extraction_engine.NewDocumentExtractor(log)
	return extraction_engine.NewParser(extractor, recognizer, vocab, log), closeFn, nil
}

// Close stops background workers and releases clients.
func (a *App) Close() {
	if a.Indexer != nil {
		a.Indexer.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("closing dependency", zap.Error(err))
		}
	}
}
