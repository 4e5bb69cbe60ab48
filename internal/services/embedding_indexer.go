package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/logger"
)

// EmbeddingIndexer embeds candidate summaries in the background:
//
// db:        reads the candidate and stores its vector.
// embedder:  embedding provider (Gemini or a test double).
// jobs:      bounded in-memory queue of candidate IDs.
type EmbeddingIndexer struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	jobs     chan string
	log      *zap.Logger
	wg       sync.WaitGroup
}

// NewEmbeddingIndexer constructs the indexer with a bounded job queue (64).
func NewEmbeddingIndexer(db core.DbClient, emb core.EmbeddingProvider, log *zap.Logger) *EmbeddingIndexer {
	return &EmbeddingIndexer{
		db: db, embedder: emb,
		jobs: make(chan string, 64),
		log:  logger.OrNop(log).Named("indexer"),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel until ctx is done.
func (i *EmbeddingIndexer) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		i.wg.Add(1)
		go func(w int) {
			defer i.wg.Done()
			for {
				select {
				case <-ctx.Done():
					i.log.Debug("worker shutting down", zap.Int("worker", w))
					return
				case id := <-i.jobs:
					if err := i.processOne(ctx, id); err != nil {
						i.log.Warn("embedding failed", zap.String("candidate_id", id), zap.Int("worker", w), zap.Error(err))
					}
				}
			}
		}(w)
	}
}

// Wait blocks until every worker has exited.
func (i *EmbeddingIndexer) Wait() {
	i.wg.Wait()
}

// Enqueue schedules a candidate for embedding. It never blocks: when the queue
// is full the job is dropped and false is returned.
func (i *EmbeddingIndexer) Enqueue(candidateID string) bool {
	select {
	case i.jobs <- candidateID:
		return true
	default:
		i.log.Warn("embedding queue full, dropping job", zap.String("candidate_id", candidateID))
		return false
	}
}

func (i *EmbeddingIndexer) processOne(ctx context.Context, candidateID string) error {
	procCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cand, err := i.db.GetCandidate(procCtx, candidateID)
	if err != nil {
		return fmt.Errorf("get candidate: %w", err)
	}
	if cand == nil {
		return fmt.Errorf("candidate not found: %s", candidateID)
	}
	if cand.Summary == "" {
		return nil
	}

	vecs, err := i.embedder.EmbedTexts(procCtx, []string{cand.Summary})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("embed size mismatch: got %d want 1", len(vecs))
	}
	if err := i.db.SetCandidateEmbedding(procCtx, candidateID, vecs[0]); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	i.log.Debug("stored embedding", zap.String("candidate_id", candidateID), zap.Int("dim", len(vecs[0])))
	return nil
}
