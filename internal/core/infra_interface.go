package core

import (
	"context"
	"io"

	"github.com/markdave123-py/resumex/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	SaveCandidate(ctx context.Context, bundle *models.CandidateBundle) (id string, err error)
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
	SearchCandidates(ctx context.Context, q models.CandidateQuery) ([]models.Candidate, error)

	SetCandidateEmbedding(ctx context.Context, id string, vec []float32) error
	SearchSimilar(ctx context.Context, vec []float32, limit int) ([]models.Candidate, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
