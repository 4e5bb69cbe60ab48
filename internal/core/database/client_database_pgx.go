package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/resumex/internal/config"
	"github.com/markdave123-py/resumex/internal/core"
	"github.com/markdave123-py/resumex/internal/models"
)

const (
	defaultSearchLimit = 100
	latestLimit        = 50
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// buildDSN appends verify-ca SSL parameters when a root certificate is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// SaveCandidate writes the candidate, its skills and its education/experience
// rows in a single transaction and returns the candidate id.
func (c *DatabaseClient) SaveCandidate(ctx context.Context, bundle *models.CandidateBundle) (string, error) {
	if bundle == nil {
		return "", errors.New("nil candidate bundle")
	}
	cand := bundle.Candidate
	if cand.ID == "" {
		cand.ID = uuid.NewString()
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	const insertCandidate = `
		INSERT INTO candidates (id, full_name, email, phone, location, summary, resume_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`
	if _, err := tx.ExecContext(ctx, insertCandidate,
		cand.ID, cand.FullName, cand.Email, cand.Phone, cand.Location, cand.Summary, cand.ResumeURL,
	); err != nil {
		return "", fmt.Errorf("insert candidate: %w", err)
	}

	const upsertSkill = `
		INSERT INTO skills (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = skills.name
		RETURNING id
	`
	const linkSkill = `
		INSERT INTO candidate_skills (candidate_id, skill_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, skill := range bundle.Skills {
		var skillID string
		if err := tx.QueryRowContext(ctx, upsertSkill, uuid.NewString(), skill).Scan(&skillID); err != nil {
			return "", fmt.Errorf("upsert skill %q: %w", skill, err)
		}
		if _, err := tx.ExecContext(ctx, linkSkill, cand.ID, skillID); err != nil {
			return "", fmt.Errorf("link skill %q: %w", skill, err)
		}
	}

	const insertEducation = `
		INSERT INTO education (id, candidate_id, degree, institution, raw) VALUES ($1, $2, $3, $4, $5)
	`
	for _, ed := range bundle.Education {
		if _, err := tx.ExecContext(ctx, insertEducation, uuid.NewString(), cand.ID, ed.Degree, ed.Institution, ed.Raw); err != nil {
			return "", fmt.Errorf("insert education: %w", err)
		}
	}

	const insertExperience = `
		INSERT INTO experience (id, candidate_id, title, company, raw) VALUES ($1, $2, $3, $4, $5)
	`
	for _, ex := range bundle.Experience {
		if _, err := tx.ExecContext(ctx, insertExperience, uuid.NewString(), cand.ID, ex.Title, ex.Company, ex.Raw); err != nil {
			return "", fmt.Errorf("insert experience: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit candidate: %w", err)
	}
	return cand.ID, nil
}

const candidateColumns = `c.id, COALESCE(c.full_name, ''), c.email, c.phone, c.location, COALESCE(c.summary, ''), c.resume_url, c.created_at`

func (c *DatabaseClient) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	q := `SELECT ` + candidateColumns + ` FROM candidates c WHERE c.id = $1`
	var cand models.Candidate
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&cand.ID, &cand.FullName, &cand.Email, &cand.Phone, &cand.Location, &cand.Summary, &cand.ResumeURL, &cand.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cand, nil
}

// SearchCandidates filters by skill name (case-insensitive) or by a substring of
// name/summary; with neither it lists the most recent candidates.
func (c *DatabaseClient) SearchCandidates(ctx context.Context, query models.CandidateQuery) ([]models.Candidate, error) {
	limit := query.Limit
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	var (
		q    string
		args []any
	)
	switch {
	case query.Skill != "":
		q = `SELECT ` + candidateColumns + `
			FROM candidates c
			JOIN candidate_skills cs ON cs.candidate_id = c.id
			JOIN skills s ON s.id = cs.skill_id
			WHERE lower(s.name) = lower($1)
			ORDER BY c.created_at DESC
			LIMIT $2`
		args = []any{query.Skill, limit}
	case query.Text != "":
		pattern := "%" + strings.ToLower(query.Text) + "%"
		q = `SELECT ` + candidateColumns + `
			FROM candidates c
			WHERE lower(c.full_name) LIKE $1 OR lower(c.summary) LIKE $1
			ORDER BY c.created_at DESC
			LIMIT $2`
		args = []any{pattern, limit}
	default:
		q = `SELECT ` + candidateColumns + ` FROM candidates c ORDER BY c.created_at DESC LIMIT $1`
		args = []any{min(limit, latestLimit)}
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (c *DatabaseClient) SetCandidateEmbedding(ctx context.Context, id string, vec []float32) error {
	const q = `UPDATE candidates SET embedding = $2 WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, pgvector.NewVector(vec))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("candidate not found: %s", id)
	}
	return nil
}

// SearchSimilar returns candidates whose summary embedding is closest to vec.
func (c *DatabaseClient) SearchSimilar(ctx context.Context, vec []float32, limit int) ([]models.Candidate, error) {
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}
	q := `SELECT ` + candidateColumns + `
		FROM candidates c
		WHERE c.embedding IS NOT NULL
		ORDER BY c.embedding <-> $1
		LIMIT $2`
	rows, err := c.db.QueryContext(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func scanCandidates(rows *sql.Rows) ([]models.Candidate, error) {
	out := []models.Candidate{}
	for rows.Next() {
		var cand models.Candidate
		if err := rows.Scan(
			&cand.ID, &cand.FullName, &cand.Email, &cand.Phone, &cand.Location, &cand.Summary, &cand.ResumeURL, &cand.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}
