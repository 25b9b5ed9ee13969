package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

const (
	recordsHashKey = "records:data"
	recordsSeen    = "records:seen:"
)

// RecordCache implements ports.RecordCache. Records live in one hash keyed
// by id with no expiry. Each session has a sorted set of the ids its
// searches returned, in first-seen order.
type RecordCache struct {
	client     valkey.Client
	hashKey    string
	seenPrefix string
}

// NewRecordCache shares the client and key prefix of an existing Cache.
func NewRecordCache(c *Cache) *RecordCache {
	return &RecordCache{
		client:     c.client,
		hashKey:    c.key(recordsHashKey),
		seenPrefix: c.key(recordsSeen),
	}
}

// PutRecords stores or refreshes records.
func (r *RecordCache) PutRecords(ctx context.Context, records []domain.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}

	hset := r.client.B().Hset().Key(r.hashKey).FieldValue()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
		hset = hset.FieldValue(rec.ID, string(data))
	}
	return r.client.Do(ctx, hset.Build()).Error()
}

// MarkSeen adds ids to the session's seen set. Ids already present keep
// their original position.
func (r *RecordCache) MarkSeen(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	zadd := r.client.B().Zadd().Key(r.seenPrefix + sessionID).Nx().ScoreMember()
	now := float64(time.Now().UnixMilli())
	for i, id := range ids {
		// keep page order within one batch
		zadd = zadd.ScoreMember(now+float64(i)/1000, id)
	}
	return r.client.Do(ctx, zadd.Build()).Error()
}

// GetRecords returns cached records in the order of ids plus the ids that
// were not found.
func (r *RecordCache) GetRecords(ctx context.Context, ids []string) ([]domain.PropertyRecord, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	values, err := r.client.Do(ctx, r.client.B().Hmget().Key(r.hashKey).Field(ids...).Build()).ToArray()
	if err != nil {
		return nil, nil, err
	}

	records := make([]domain.PropertyRecord, 0, len(ids))
	var missing []string
	for i, v := range values {
		raw, err := v.ToString()
		if valkey.IsValkeyNil(err) {
			missing = append(missing, ids[i])
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		var rec domain.PropertyRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, nil, fmt.Errorf("decode record %s: %w", ids[i], err)
		}
		records = append(records, rec)
	}
	return records, missing, nil
}

// SeenRecordIDs lists the ids the session's searches returned.
func (r *RecordCache) SeenRecordIDs(ctx context.Context, sessionID string) ([]string, error) {
	return r.client.Do(ctx, r.client.B().Zrange().Key(r.seenPrefix+sessionID).Min("0").Max("-1").Build()).AsStrSlice()
}
