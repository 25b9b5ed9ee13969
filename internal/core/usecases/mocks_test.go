package usecases_test

import (
	"context"
	"slices"
	"sync"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// --- Mock RegionRepository ---

type mockRegionRepo struct {
	getByIDsFn   func(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error)
	listByKindFn func(ctx context.Context, kind domain.RegionKind, cityID string) ([]domain.Region, error)
	allCitiesFn  func(ctx context.Context) ([]domain.Region, error)
}

func (m *mockRegionRepo) UpsertBatch(ctx context.Context, rs []domain.Region) error { return nil }

func (m *mockRegionRepo) GetByIDs(ctx context.Context, kind domain.RegionKind, ids []string) ([]domain.Region, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, kind, ids)
	}
	return nil, nil
}

func (m *mockRegionRepo) ListByKind(ctx context.Context, kind domain.RegionKind, cityID string) ([]domain.Region, error) {
	if m.listByKindFn != nil {
		return m.listByKindFn(ctx, kind, cityID)
	}
	return nil, nil
}

func (m *mockRegionRepo) AllCities(ctx context.Context) ([]domain.Region, error) {
	if m.allCitiesFn != nil {
		return m.allCitiesFn(ctx)
	}
	return nil, nil
}

// --- Mock SelectionRepository (in memory) ---

type memSelectionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Selection
	saves    int
	// beforeSave runs ahead of each version check, with the lock released.
	beforeSave func(sel *domain.Selection)
}

func newMemSelectionRepo(sels ...domain.Selection) *memSelectionRepo {
	m := &memSelectionRepo{sessions: make(map[string]domain.Selection)}
	for _, s := range sels {
		m.sessions[s.SessionID] = s
	}
	return m
}

func (m *memSelectionRepo) Create(ctx context.Context, sel *domain.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sel.SessionID] = *sel
	return nil
}

func (m *memSelectionRepo) Get(ctx context.Context, sessionID string) (*domain.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sel.IDs = append([]string(nil), sel.IDs...)
	return &sel, nil
}

func (m *memSelectionRepo) Save(ctx context.Context, sel *domain.Selection) error {
	if m.beforeSave != nil {
		m.beforeSave(sel)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[sel.SessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != sel.Version {
		return domain.ErrConflict
	}
	sel.Version++
	next := *sel
	next.IDs = append([]string(nil), sel.IDs...)
	m.sessions[sel.SessionID] = next
	m.saves++
	return nil
}

// concurrentToggle simulates another request toggling ids on the stored
// session between a read and a save.
func (m *memSelectionRepo) concurrentToggle(sessionID string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.sessions[sessionID]
	stored.IDs = append([]string(nil), stored.IDs...)
	stored.Toggle(ids...)
	stored.Version++
	m.sessions[sessionID] = stored
}

// --- Mock RecordCache (in memory) ---

type memRecordCache struct {
	mu      sync.Mutex
	records map[string]domain.PropertyRecord
	seen    map[string][]string
	puts    int
}

func newMemRecordCache(records ...domain.PropertyRecord) *memRecordCache {
	c := &memRecordCache{
		records: make(map[string]domain.PropertyRecord),
		seen:    make(map[string][]string),
	}
	_ = c.PutRecords(context.Background(), records)
	c.puts = 0
	return c
}

func (c *memRecordCache) PutRecords(ctx context.Context, records []domain.PropertyRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		c.records[r.ID] = r
	}
	c.puts++
	return nil
}

func (c *memRecordCache) GetRecords(ctx context.Context, ids []string) ([]domain.PropertyRecord, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.PropertyRecord
	var missing []string
	for _, id := range ids {
		if r, ok := c.records[id]; ok {
			out = append(out, r)
		} else {
			missing = append(missing, id)
		}
	}
	return out, missing, nil
}

func (c *memRecordCache) MarkSeen(ctx context.Context, sessionID string, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if !slices.Contains(c.seen[sessionID], id) {
			c.seen[sessionID] = append(c.seen[sessionID], id)
		}
	}
	return nil
}

func (c *memRecordCache) SeenRecordIDs(ctx context.Context, sessionID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.seen[sessionID]), nil
}

// seenBy marks every cached record as seen by the session.
func (c *memRecordCache) seenBy(sessionID string) *memRecordCache {
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	_ = c.MarkSeen(context.Background(), sessionID, ids)
	return c
}

// --- Mock CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock SearchClient ---

type mockSearchClient struct {
	searchFn func(ctx context.Context, filter domain.FilterState) (*domain.SearchPage, error)
}

func (m *mockSearchClient) Search(ctx context.Context, filter domain.FilterState) (*domain.SearchPage, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, filter)
	}
	return &domain.SearchPage{}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	changed   []domain.Summary
	requested []domain.ReportRequest
	ready     []*domain.Report
	err       error
}

func (m *mockPublisher) PublishSelectionChanged(ctx context.Context, sel *domain.Selection, summary domain.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, summary)
	return m.err
}

func (m *mockPublisher) PublishReportRequested(ctx context.Context, req domain.ReportRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.requested = append(m.requested, req)
	return nil
}

func (m *mockPublisher) PublishReportReady(ctx context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = append(m.ready, report)
	return m.err
}

// --- Fixtures ---

func listing(id string, priceValue, totalArea float64, at *domain.GeoPoint) domain.PropertyRecord {
	return domain.PropertyRecord{
		ID:     id,
		Prices: []domain.Price{{BusinessModel: domain.BusinessSale, Total: domain.Money{Value: priceValue}}},
		Areas:  []domain.Area{{AreaType: domain.AreaTotal, Value: totalArea}},
		Address: domain.Address{
			Street:   "Rua Teste",
			Number:   id,
			City:     "São Paulo",
			Location: at,
		},
	}
}

func square(id string, kind domain.RegionKind, lat, lng, size float64) domain.Region {
	return domain.Region{
		ID:   id,
		Kind: kind,
		Rings: []domain.GeoRing{{
			{Lat: lat, Lng: lng},
			{Lat: lat + size, Lng: lng},
			{Lat: lat + size, Lng: lng + size},
			{Lat: lat, Lng: lng + size},
		}},
	}
}
