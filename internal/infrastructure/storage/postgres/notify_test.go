package postgres

import (
	"context"
	"testing"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/domain/realtime"
	"pharmstock/internal/domain/sales"
)

type watermarkSaleRepo struct {
	docs      []sales.Sale
	lastAfter time.Time
}

func (r *watermarkSaleRepo) Create(_ context.Context, sale *sales.Sale) error {
	r.docs = append(r.docs, *sale)
	return nil
}

func (r *watermarkSaleRepo) GetByID(_ context.Context, saleID string) (*sales.Sale, error) {
	for i := range r.docs {
		if r.docs[i].ID == saleID {
			return &r.docs[i], nil
		}
	}
	return nil, apperror.NewNotFound("sale", saleID)
}

func (r *watermarkSaleRepo) List(_ context.Context) ([]sales.Sale, error) {
	return r.docs, nil
}

// ListCreatedAfter mirrors the repository's inclusive bound.
func (r *watermarkSaleRepo) ListCreatedAfter(_ context.Context, after time.Time) ([]sales.Sale, error) {
	r.lastAfter = after
	var out []sales.Sale
	for _, d := range r.docs {
		if !d.CreatedAt.Before(after) {
			out = append(out, d)
		}
	}
	return out, nil
}

type countingSaleHandler struct {
	handled map[string]int
}

func (h *countingSaleHandler) HandleSale(_ context.Context, sale *sales.Sale) (realtime.Summary, error) {
	if h.handled == nil {
		h.handled = make(map[string]int)
	}
	h.handled[sale.ID]++
	return realtime.Summary{}, nil
}

func TestSaleListenerCatchUpIncludesWatermarkTimestamp(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	repo := &watermarkSaleRepo{docs: []sales.Sale{
		{ID: "s1", CreatedAt: ts},
		{ID: "s2", CreatedAt: ts},
	}}
	handler := &countingSaleHandler{}
	l := &SaleListener{repo: repo, handler: handler}

	l.catchUp(context.Background())
	if handler.handled["s1"] != 1 || handler.handled["s2"] != 1 {
		t.Fatalf("handled = %v, want both sales once", handler.handled)
	}
	if !l.lastSeen.Equal(ts) {
		t.Fatalf("lastSeen = %v, want %v", l.lastSeen, ts)
	}

	// A third sale shares created_at with the watermark and its notification
	// was lost. The inclusive bound picks it up on the next poll; the two
	// boundary sales come back with it and are reprocessed harmlessly.
	repo.docs = append(repo.docs, sales.Sale{ID: "s3", CreatedAt: ts})
	l.catchUp(context.Background())

	if !repo.lastAfter.Equal(ts) {
		t.Errorf("poll queried after %v, want the watermark %v", repo.lastAfter, ts)
	}
	if handler.handled["s3"] != 1 {
		t.Errorf("handled = %v, want the late sale picked up", handler.handled)
	}
	if handler.handled["s1"] != 2 || handler.handled["s2"] != 2 {
		t.Errorf("handled = %v, want boundary sales re-delivered", handler.handled)
	}
	if !l.lastSeen.Equal(ts) {
		t.Errorf("lastSeen = %v, want unchanged at %v", l.lastSeen, ts)
	}
}
