package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool pgQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q pgQuerier) *PostgresRepository {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{pool: q}
}

const submissionColumns = `id, variant, name, email, phone, category, area,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content,
	attachment_count, ip_address, user_agent, submitted_at`

// Insert appends one row and returns its id.
func (r *PostgresRepository) Insert(ctx context.Context, sub *Submission) (string, error) {
	query := `
		INSERT INTO lead_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	var id string
	if err := r.pool.QueryRow(ctx, query,
		sub.ID,
		string(sub.Variant),
		sub.Name,
		sub.Email,
		sub.Phone,
		sub.Category,
		sub.Area,
		sub.Attribution.Source,
		sub.Attribution.Medium,
		sub.Attribution.Campaign,
		sub.Attribution.Term,
		sub.Attribution.Content,
		len(sub.Attachments),
		sub.IPAddress,
		sub.UserAgent,
		sub.SubmittedAt,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("leads: insert failed: %w", err)
	}
	return id, nil
}

// GetByID fetches one stored lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM lead_submissions WHERE id = $1`
	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return sub, nil
}

// List returns stored leads newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	filter = filter.normalized()
	query := `
		SELECT ` + submissionColumns + `
		FROM lead_submissions
		WHERE ($1 = '' OR variant = $1)
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Variant), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var (
		sub         Submission
		variant     string
		attachments int
		submittedAt time.Time
	)
	if err := row.Scan(
		&sub.ID,
		&variant,
		&sub.Name,
		&sub.Email,
		&sub.Phone,
		&sub.Category,
		&sub.Area,
		&sub.Attribution.Source,
		&sub.Attribution.Medium,
		&sub.Attribution.Campaign,
		&sub.Attribution.Term,
		&sub.Attribution.Content,
		&attachments,
		&sub.IPAddress,
		&sub.UserAgent,
		&submittedAt,
	); err != nil {
		return nil, err
	}
	sub.Variant = Variant(variant)
	sub.SubmittedAt = submittedAt.UTC()
	if attachments > 0 {
		sub.Attachments = make([]Attachment, attachments)
	}
	return &sub, nil
}
