package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/core/extraction_engine"
	"github.com/markdave123-py/resumex/internal/models"
)

type fakeDB struct {
	mu         sync.Mutex
	saveErr    error
	saved      []*models.CandidateBundle
	candidates map[string]*models.Candidate
	embeddings map[string][]float32
	lastQuery  models.CandidateQuery
	similarVec []float32
}

var _ core.DbClient = (*fakeDB)(nil)

func newFakeDB() *fakeDB {
	return &fakeDB{candidates: map[string]*models.Candidate{}, embeddings: map[string][]float32{}}
}

func (f *fakeDB) SaveCandidate(_ context.Context, b *models.CandidateBundle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, b)
	c := b.Candidate
	f.candidates[c.ID] = &c
	return c.ID, nil
}

func (f *fakeDB) GetCandidate(_ context.Context, id string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates[id], nil
}

func (f *fakeDB) SearchCandidates(_ context.Context, q models.CandidateQuery) ([]models.Candidate, error) {
	f.lastQuery = q
	return []models.Candidate{{ID: "c1", FullName: "Jane Doe"}}, nil
}

func (f *fakeDB) SetCandidateEmbedding(_ context.Context, id string, vec []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeddings[id] = vec
	return nil
}

func (f *fakeDB) SearchSimilar(_ context.Context, vec []float32, _ int) ([]models.Candidate, error) {
	f.similarVec = vec
	return []models.Candidate{{ID: "c2"}}, nil
}

func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) embedding(id string) []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embeddings[id]
}

type fakeStorage struct {
	err     error
	files   map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{files: map[string][]byte{}} }

func (f *fakeStorage) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.files[bucket+"/"+key] = data
	return "https://" + bucket + ".s3.us-east-2.amazonaws.com/" + key, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, bucket, key string) error {
	f.deleted = append(f.deleted, bucket+"/"+key)
	delete(f.files, bucket+"/"+key)
	return nil
}

func (f *fakeStorage) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.files[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeStorage) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, err := f.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type recordingQueue struct{ ids []string }

func (q *recordingQueue) Enqueue(id string) bool {
	q.ids = append(q.ids, id)
	return true
}

const resumeText = "Jane Doe\njane@example.com\njane@example.com\nPython and SQL"

func newParser() *extraction_engine.Parser {
	return extraction_engine.NewParser(nil, extraction_engine.NoopRecognizer{}, nil, nil)
}

func TestIngest_StoresCandidate(t *testing.T) {
	db := newFakeDB()
	storage := newFakeStorage()
	queue := &recordingQueue{}
	svc := NewResumeService(ResumeDeps{Parser: newParser(), DB: db, Storage: storage, Bucket: "cvs", Indexer: queue})

	res := svc.Ingest(context.Background(), "jane cv.txt", "text/plain", []byte(resumeText))
	require.NotNil(t, res.CandidateID)
	assert.Equal(t, "Jane Doe", res.Parsed.FullName)

	require.Len(t, db.saved, 1)
	b := db.saved[0]
	assert.Equal(t, *res.CandidateID, b.Candidate.ID)
	require.NotNil(t, b.Candidate.Email)
	assert.Equal(t, "jane@example.com", *b.Candidate.Email)
	assert.Nil(t, b.Candidate.Phone)
	assert.Equal(t, []string{"python", "sql"}, b.Skills)
	require.NotNil(t, b.Candidate.ResumeURL)
	assert.Contains(t, *b.Candidate.ResumeURL, "jane_cv.txt")
	assert.Equal(t, []string{*res.CandidateID}, queue.ids)
}

func TestIngest_StorageFailuresDoNotLoseParse(t *testing.T) {
	db := newFakeDB()
	db.saveErr = errors.New("connection refused")
	obsCore, logs := observer.New(zap.WarnLevel)
	svc := NewResumeService(ResumeDeps{
		Parser:  newParser(),
		DB:      db,
		Storage: &fakeStorage{err: errors.New("denied")},
		Bucket:  "cvs",
		Log:     zap.New(obsCore),
	})

	res := svc.Ingest(context.Background(), "cv.txt", "text/plain", []byte(resumeText))
	assert.Nil(t, res.CandidateID)
	require.NotNil(t, res.Parsed)
	assert.Equal(t, []string{"jane@example.com"}, res.Parsed.Emails)

	assert.Equal(t, 1, logs.FilterMessage("archiving résumé failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("storing candidate failed").Len())
}

func TestIngest_FailedSaveRemovesArchive(t *testing.T) {
	db := newFakeDB()
	db.saveErr = errors.New("connection refused")
	storage := newFakeStorage()
	svc := NewResumeService(ResumeDeps{Parser: newParser(), DB: db, Storage: storage, Bucket: "cvs"})

	res := svc.Ingest(context.Background(), "cv.txt", "text/plain", []byte(resumeText))
	assert.Nil(t, res.CandidateID)
	require.Len(t, storage.deleted, 1)
	assert.Empty(t, storage.files)
}

func TestArchivedResume(t *testing.T) {
	db := newFakeDB()
	storage := newFakeStorage()
	svc := NewResumeService(ResumeDeps{Parser: newParser(), DB: db, Storage: storage, Bucket: "cvs"})

	res := svc.Ingest(context.Background(), "cv.txt", "text/plain", []byte(resumeText))
	require.NotNil(t, res.CandidateID)
	id := *res.CandidateID

	cand, err := svc.Candidate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", cand.FullName)

	rc, name, err := svc.OpenResume(context.Background(), id)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "cv.txt", name)
	assert.Equal(t, resumeText, string(body))

	rec, err := svc.Reparse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, res.Parsed, rec)

	_, err = svc.Candidate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.OpenResume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngest_WithoutDatabase(t *testing.T) {
	svc := NewResumeService(ResumeDeps{})

	res := svc.Ingest(context.Background(), "cv.txt", "text/plain", []byte(resumeText))
	assert.Nil(t, res.CandidateID)
	assert.Equal(t, "Jane Doe", res.Parsed.FullName)

	_, err := svc.Search(context.Background(), models.CandidateQuery{}, "")
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestSearch(t *testing.T) {
	db := newFakeDB()
	svc := NewResumeService(ResumeDeps{DB: db, Embedder: fakeEmbedder{}})

	got, err := svc.Search(context.Background(), models.CandidateQuery{Skill: "python"}, "")
	require.NoError(t, err)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "python", db.lastQuery.Skill)

	got, err = svc.Search(context.Background(), models.CandidateQuery{}, "data engineer")
	require.NoError(t, err)
	assert.Equal(t, "c2", got[0].ID)
	assert.Equal(t, []float32{13, 1}, db.similarVec)
}

func TestEmbeddingIndexer(t *testing.T) {
	db := newFakeDB()
	db.candidates["c1"] = &models.Candidate{ID: "c1", Summary: "Go developer"}
	db.candidates["empty"] = &models.Candidate{ID: "empty"}

	ctx, cancel := context.WithCancel(context.Background())
	idx := NewEmbeddingIndexer(db, fakeEmbedder{}, nil)
	idx.Start(ctx, 2)

	assert.True(t, idx.Enqueue("empty"))
	assert.True(t, idx.Enqueue("missing"))
	assert.True(t, idx.Enqueue("c1"))

	assert.Eventually(t, func() bool { return db.embedding("c1") != nil }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []float32{12, 1}, db.embedding("c1"))
	assert.Nil(t, db.embedding("empty"))

	cancel()
	idx.Wait()
}

func TestEmbeddingIndexer_EnqueueNeverBlocks(t *testing.T) {
	idx := NewEmbeddingIndexer(newFakeDB(), fakeEmbedder{}, nil)
	for i := 0; i < cap(idx.jobs); i++ {
		require.True(t, idx.Enqueue("c"))
	}
	assert.False(t, idx.Enqueue("overflow"))
}
