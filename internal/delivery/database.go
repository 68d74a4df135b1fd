package delivery

import (
	"context"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// Database inserts the lead into the managed store.
type Database struct {
	repo leads.Repository
}

func NewDatabase(repo leads.Repository) *Database {
	return &Database{repo: repo}
}

func (d *Database) Name() string { return NameDatabase }

// Deliver returns the stored row id.
func (d *Database) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	return d.repo.Insert(ctx, sub)
}
