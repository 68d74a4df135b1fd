package leads

import (
	"context"
	"testing"
	"time"
)

func sampleSubmission(id string, variant Variant, at time.Time) *Submission {
	return &Submission{
		ID:          id,
		Variant:     variant,
		Name:        "홍길동",
		Email:       "hong@example.com",
		Phone:       "010-1234-5678",
		Attribution: Attribution{Source: "direct", Medium: "none", Campaign: "none"},
		SubmittedAt: at,
	}
}

func TestInMemoryRepository_InsertAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	sub := sampleSubmission("lead-1", VariantInquiry, time.Now().UTC())
	sub.Attachments = []Attachment{{Filename: "bag.jpg", ContentType: "image/jpeg", Size: 3, Data: []byte("abc")}}

	id, err := repo.Insert(ctx, sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "lead-1" {
		t.Fatalf("expected id lead-1, got %s", id)
	}

	found, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Name != sub.Name {
		t.Errorf("expected name %s, got %s", sub.Name, found.Name)
	}
	if len(found.Attachments) != 1 || found.Attachments[0].Data != nil {
		t.Errorf("expected attachment metadata without bytes, got %+v", found.Attachments)
	}
	if sub.Attachments[0].Data == nil {
		t.Errorf("insert must not modify the caller's submission")
	}
}

func TestInMemoryRepository_GetByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.GetByID(context.Background(), "nonexistent")
	if err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestInMemoryRepository_ListNewestFirstWithFilter(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	_, _ = repo.Insert(ctx, sampleSubmission("a", VariantInquiry, base))
	_, _ = repo.Insert(ctx, sampleSubmission("b", VariantPhoto, base.Add(time.Hour)))
	_, _ = repo.Insert(ctx, sampleSubmission("c", VariantInquiry, base.Add(2*time.Hour)))

	all, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("unexpected order: %v", ids(all))
	}

	inquiries, _ := repo.List(ctx, ListFilter{Variant: VariantInquiry})
	if len(inquiries) != 2 {
		t.Fatalf("expected 2 inquiry leads, got %v", ids(inquiries))
	}

	page, _ := repo.List(ctx, ListFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != "b" {
		t.Fatalf("unexpected page: %v", ids(page))
	}

	empty, _ := repo.List(ctx, ListFilter{Offset: 10})
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %v", ids(empty))
	}
}

func ids(subs []*Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}
