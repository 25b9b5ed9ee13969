package usecases_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/core/usecases"
)

func newEvaluation(t *testing.T, records *memRecordCache, ids ...string) (*usecases.EvaluationService, *memSelectionRepo, *mockPublisher) {
	t.Helper()
	repo := newMemSelectionRepo(domain.Selection{SessionID: "s1", IDs: ids})
	pub := &mockPublisher{}
	return usecases.NewEvaluationService(repo, records, pub), repo, pub
}

func TestEvaluationService_Create(t *testing.T) {
	repo := newMemSelectionRepo()
	svc := usecases.NewEvaluationService(repo, newMemRecordCache(), nil)

	sel, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if sel.IDs == nil || len(sel.IDs) != 0 {
		t.Errorf("expected empty non-nil ids, got %v", sel.IDs)
	}
	if _, err := repo.Get(context.Background(), sel.SessionID); err != nil {
		t.Errorf("session not persisted: %v", err)
	}
}

func TestEvaluationService_ToggleDoesNotTouchCache(t *testing.T) {
	records := newMemRecordCache(listing("a", 100, 10, nil), listing("b", 200, 20, nil))
	svc, _, pub := newEvaluation(t, records, "a")

	sel, err := svc.Toggle(context.Background(), "s1", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(sel.IDs, []string{"b"}) {
		t.Errorf("expected [b], got %v", sel.IDs)
	}
	if records.puts != 0 {
		t.Errorf("toggle wrote to the record cache")
	}
	if len(pub.changed) != 1 || pub.changed[0].Count != 1 {
		t.Errorf("expected one selection-changed event with count 1, got %+v", pub.changed)
	}
}

func TestEvaluationService_SelectDeselectClear(t *testing.T) {
	svc, repo, _ := newEvaluation(t, newMemRecordCache())
	ctx := context.Background()

	if _, err := svc.Select(ctx, "s1", []string{"a", "b", "a"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	sel, err := svc.Deselect(ctx, "s1", []string{"a"})
	if err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if !slices.Equal(sel.IDs, []string{"b"}) {
		t.Errorf("expected [b], got %v", sel.IDs)
	}
	sel, err = svc.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(sel.IDs) != 0 {
		t.Errorf("expected empty selection, got %v", sel.IDs)
	}
	if repo.saves != 3 {
		t.Errorf("expected 3 saves, got %d", repo.saves)
	}
}

func TestEvaluationService_ConcurrentToggleIsKept(t *testing.T) {
	svc, repo, _ := newEvaluation(t, newMemRecordCache(), "a")
	interleaved := false
	repo.beforeSave = func(sel *domain.Selection) {
		if !interleaved {
			interleaved = true
			repo.concurrentToggle("s1", "b")
		}
	}

	sel, err := svc.Toggle(context.Background(), "s1", []string{"c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(sel.IDs, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", sel.IDs)
	}
	stored, _ := repo.Get(context.Background(), "s1")
	if !slices.Equal(stored.IDs, []string{"a", "b", "c"}) {
		t.Errorf("expected stored [a b c], got %v", stored.IDs)
	}
	if stored.Version != 2 {
		t.Errorf("expected version 2, got %d", stored.Version)
	}
}

func TestEvaluationService_ConflictGivesUp(t *testing.T) {
	svc, repo, _ := newEvaluation(t, newMemRecordCache())
	repo.beforeSave = func(sel *domain.Selection) { repo.concurrentToggle("s1", "x") }

	_, err := svc.Toggle(context.Background(), "s1", []string{"a"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if repo.saves != 0 {
		t.Errorf("expected no successful save, got %d", repo.saves)
	}
}

func TestEvaluationService_UnknownSession(t *testing.T) {
	svc, _, _ := newEvaluation(t, newMemRecordCache())
	_, err := svc.Toggle(context.Background(), "nope", []string{"a"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEvaluationService_PublishFailureIsNotFatal(t *testing.T) {
	repo := newMemSelectionRepo(domain.Selection{SessionID: "s1"})
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewEvaluationService(repo, newMemRecordCache(), pub)

	if _, err := svc.Select(context.Background(), "s1", []string{"a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEvaluationService_SelectWithin(t *testing.T) {
	records := newMemRecordCache(
		listing("in", 100, 10, &domain.GeoPoint{Lat: -23.55, Lng: -46.63}),
		listing("out", 100, 10, &domain.GeoPoint{Lat: -22.90, Lng: -43.20}),
		listing("nowhere", 100, 10, nil),
	).seenBy("s1")
	svc, _, _ := newEvaluation(t, records)

	circle := domain.Circle{Center: domain.GeoPoint{Lat: -23.55, Lng: -46.63}, RadiusMeters: 2000}
	sel, err := svc.SelectWithin(context.Background(), "s1", circle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(sel.IDs, []string{"in"}) {
		t.Errorf("expected [in], got %v", sel.IDs)
	}

	poly := domain.Polygon{Rings: []domain.GeoRing{{
		{Lat: -23.0, Lng: -43.5}, {Lat: -22.5, Lng: -43.5}, {Lat: -22.5, Lng: -43.0}, {Lat: -23.0, Lng: -43.0},
	}}}
	sel, err = svc.SelectWithin(context.Background(), "s1", poly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(sel.IDs, []string{"in", "out"}) {
		t.Errorf("expected [in out], got %v", sel.IDs)
	}
}

func TestEvaluationService_SelectWithin_OnlySeenRecords(t *testing.T) {
	near := &domain.GeoPoint{Lat: -23.55, Lng: -46.63}
	records := newMemRecordCache(listing("mine", 100, 10, near)).seenBy("s1")
	// cached by another session's rental search, never returned to s1
	_ = records.PutRecords(context.Background(), []domain.PropertyRecord{listing("other-users-rental", 100, 10, near)})
	_ = records.MarkSeen(context.Background(), "s2", []string{"other-users-rental"})
	svc, _, _ := newEvaluation(t, records)

	sel, err := svc.SelectWithin(context.Background(), "s1", domain.Circle{Center: *near, RadiusMeters: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(sel.IDs, []string{"mine"}) {
		t.Errorf("expected [mine], got %v", sel.IDs)
	}
}

func TestEvaluationService_SelectWithin_NothingSeen(t *testing.T) {
	records := newMemRecordCache(listing("a", 100, 10, &domain.GeoPoint{Lat: -23.55, Lng: -46.63}))
	svc, _, _ := newEvaluation(t, records)

	sel, err := svc.SelectWithin(context.Background(), "s1", domain.Circle{Center: domain.GeoPoint{Lat: -23.55, Lng: -46.63}, RadiusMeters: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.IDs) != 0 {
		t.Errorf("expected empty selection, got %v", sel.IDs)
	}
}

func TestEvaluationService_SelectWithin_Degenerate(t *testing.T) {
	svc, _, _ := newEvaluation(t, newMemRecordCache())
	_, err := svc.SelectWithin(context.Background(), "s1", domain.Circle{RadiusMeters: 0})
	if !errors.Is(err, domain.ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
}

func TestEvaluationService_Summary(t *testing.T) {
	records := newMemRecordCache(
		listing("a", 400000, 100, nil),
		listing("b", 600000, 150, nil),
		listing("c", 999999, 999, nil),
	)
	svc, _, _ := newEvaluation(t, records, "a", "b", "evicted")

	sum, err := svc.Summary(context.Background(), "s1", domain.AreaTotal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Count != 2 {
		t.Errorf("expected count 2, got %d", sum.Count)
	}
	if sum.AveragePrice != 500000 {
		t.Errorf("expected average 500000, got %d", sum.AveragePrice)
	}
	if sum.AverageTotalArea != 125 {
		t.Errorf("expected average area 125, got %d", sum.AverageTotalArea)
	}
}

func TestEvaluationService_Summary_EmptySelection(t *testing.T) {
	svc, _, _ := newEvaluation(t, newMemRecordCache())
	sum, err := svc.Summary(context.Background(), "s1", domain.AreaTotal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != (domain.Summary{}) {
		t.Errorf("expected zero summary, got %+v", sum)
	}
}

func TestEvaluationService_Distribution(t *testing.T) {
	records := newMemRecordCache(
		listing("a", 100, 10, nil),
		listing("b", 200, 20, nil),
		listing("c", 300, 30, nil),
	)
	svc, _, _ := newEvaluation(t, records, "a", "b", "c")

	buckets, err := svc.Distribution(context.Background(), "s1", "area", domain.AreaTotal, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Count != 1 || buckets[1].Count != 2 {
		t.Errorf("unexpected counts %+v", buckets)
	}

	if _, err := svc.Distribution(context.Background(), "s1", "bedrooms", domain.AreaTotal, 5); err == nil {
		t.Error("expected error for unknown field")
	}
}
