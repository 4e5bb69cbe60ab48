package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/core/extraction_engine"
	objectclient "github.com/markdave123-py/resumex/internal/core/object-client"
	"github.com/markdave123-py/resumex/internal/logger"
	"github.com/markdave123-py/resumex/internal/models"
)

var (
	// ErrSearchUnavailable is returned when no candidate store is configured.
	ErrSearchUnavailable = errors.New("candidate store not configured")
	// ErrNotFound is returned for unknown candidates or candidates without an archived file.
	ErrNotFound = errors.New("not found")
)

// Enqueuer schedules background work for a stored candidate.
type Enqueuer interface {
	Enqueue(candidateID string) bool
}

// ResumeDeps lists the collaborators of a ResumeService. Only Parser is required.
type ResumeDeps struct {
	Parser   *extraction_engine.Parser
	DB       core.DbClient
	Storage  core.ObjectClient
	Bucket   string
	Indexer  Enqueuer
	Embedder core.EmbeddingProvider
	Log      *zap.Logger
}

// ResumeService parses uploads and hands the result to storage.
type ResumeService struct {
	parser   *extraction_engine.Parser
	db       core.DbClient
	storage  core.ObjectClient
	bucket   string
	indexer  Enqueuer
	embedder core.EmbeddingProvider
	log      *zap.Logger
}

func NewResumeService(deps ResumeDeps) *ResumeService {
	log := logger.OrNop(deps.Log)
	parser := deps.Parser
	if parser == nil {
		parser = extraction_engine.NewParser(nil, nil, nil, log)
	}
	return &ResumeService{
		parser:   parser,
		db:       deps.DB,
		storage:  deps.Storage,
		bucket:   deps.Bucket,
		indexer:  deps.Indexer,
		embedder: deps.Embedder,
		log:      log.Named("resumes"),
	}
}

// Ingest parses data and persists the result. Persistence problems are logged
// and leave CandidateID nil; the parsed record is always returned.
func (s *ResumeService) Ingest(ctx context.Context, filename, contentType string, data []byte) *models.IngestResult {
	rec := s.parser.Parse(ctx, data, filename, nil)
	res := &models.IngestResult{Parsed: rec}

	if s.db == nil {
		return res
	}

	uploadID := uuid.NewString()
	cand := models.Candidate{
		ID:       uploadID,
		FullName: rec.FullName,
		Email:    joinOrNil(rec.Emails),
		Phone:    joinOrNil(rec.Phones),
		Summary:  rec.Summary,
	}

	if s.storage != nil && s.bucket != "" {
		url, err := s.storage.UploadFile(ctx, s.bucket, objectclient.ResumeKey(uploadID, filename), data, contentType)
		if err != nil {
			s.log.Warn("archiving résumé failed", zap.String("filename", filename), zap.Error(err))
		} else {
			cand.ResumeURL = &url
		}
	}

	id, err := s.db.SaveCandidate(ctx, &models.CandidateBundle{
		Candidate:  cand,
		Skills:     rec.Skills,
		Education:  rec.Education,
		Experience: rec.Experience,
	})
	if err != nil {
		s.log.Error("storing candidate failed", zap.String("filename", filename), zap.Error(err))
		s.discardArchive(ctx, cand.ResumeURL)
		return res
	}
	res.CandidateID = &id

	if s.indexer != nil {
		s.indexer.Enqueue(id)
	}
	s.log.Info("stored candidate", zap.String("candidate_id", id), zap.String("filename", filename))
	return res
}

// Search looks candidates up by skill, free text or, when similar is set and
// an embedder is configured, by summary similarity.
func (s *ResumeService) Search(ctx context.Context, q models.CandidateQuery, similar string) ([]models.Candidate, error) {
	if s.db == nil {
		return nil, ErrSearchUnavailable
	}
	if similar != "" && s.embedder != nil {
		vecs, err := s.embedder.EmbedTexts(ctx, []string{similar})
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		if len(vecs) == 0 {
			return []models.Candidate{}, nil
		}
		return s.db.SearchSimilar(ctx, vecs[0], q.Limit)
	}
	return s.db.SearchCandidates(ctx, q)
}

// Candidate returns a stored candidate.
func (s *ResumeService) Candidate(ctx context.Context, id string) (*models.Candidate, error) {
	if s.db == nil {
		return nil, ErrSearchUnavailable
	}
	cand, err := s.db.GetCandidate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	if cand == nil {
		return nil, ErrNotFound
	}
	return cand, nil
}

// OpenResume streams the archived original of a candidate's résumé. The
// caller closes the reader.
func (s *ResumeService) OpenResume(ctx context.Context, id string) (io.ReadCloser, string, error) {
	bucket, key, err := s.archiveLocation(ctx, id)
	if err != nil {
		return nil, "", err
	}
	rc, err := s.storage.GetObjectReader(ctx, bucket, key)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(key), nil
}

// Reparse runs the archived original through the current parser without
// touching the stored rows.
func (s *ResumeService) Reparse(ctx context.Context, id string) (*models.ExtractionRecord, error) {
	bucket, key, err := s.archiveLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(ctx, data, path.Base(key), nil), nil
}

func (s *ResumeService) archiveLocation(ctx context.Context, id string) (bucket, key string, err error) {
	cand, err := s.Candidate(ctx, id)
	if err != nil {
		return "", "", err
	}
	if s.storage == nil || cand.ResumeURL == nil || *cand.ResumeURL == "" {
		return "", "", ErrNotFound
	}
	bucket, key = objectclient.ParseS3URL(*cand.ResumeURL)
	return bucket, key, nil
}

func (s *ResumeService) discardArchive(ctx context.Context, url *string) {
	if s.storage == nil || url == nil {
		return
	}
	bucket, key := objectclient.ParseS3URL(*url)
	if err := s.storage.DeleteFile(ctx, bucket, key); err != nil {
		s.log.Warn("removing orphaned archive failed", zap.String("key", key), zap.Error(err))
	}
}

func joinOrNil(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	s := strings.Join(values, ",")
	return &s
}
