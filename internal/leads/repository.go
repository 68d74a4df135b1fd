package leads

import (
	"context"
	"sort"
	"sync"
)

// Repository is the managed store that receives accepted submissions.
// Rows are only ever appended; there is no update or delete.
type Repository interface {
	Insert(ctx context.Context, sub *Submission) (string, error)
	GetByID(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, filter ListFilter) ([]*Submission, error)
}

// ListFilter narrows an admin listing.
type ListFilter struct {
	Variant Variant
	Limit   int
	Offset  int
}

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// InMemoryRepository keeps submissions in process memory. Used for local
// development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Submission
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Submission),
	}
}

// Insert stores a copy of the submission keyed by its id.
func (r *InMemoryRepository) Insert(ctx context.Context, sub *Submission) (string, error) {
	cp := *sub
	cp.Attachments = stripData(sub.Attachments)

	r.mu.Lock()
	r.leads[cp.ID] = &cp
	r.mu.Unlock()

	return cp.ID, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	cp := *sub
	return &cp, nil
}

// List returns submissions newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	filter = filter.normalized()

	r.mu.RLock()
	all := make([]*Submission, 0, len(r.leads))
	for _, sub := range r.leads {
		if filter.Variant != "" && sub.Variant != filter.Variant {
			continue
		}
		cp := *sub
		all = append(all, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].SubmittedAt.Equal(all[j].SubmittedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].SubmittedAt.After(all[j].SubmittedAt)
	})
	if filter.Offset >= len(all) {
		return []*Submission{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

// stripData keeps attachment metadata only; photo bytes live in object storage.
func stripData(in []Attachment) []Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attachment, len(in))
	for i, a := range in {
		a.Data = nil
		out[i] = a
	}
	return out
}
