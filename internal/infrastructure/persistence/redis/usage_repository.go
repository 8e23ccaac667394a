// Package redis provides a Redis-backed usage repository for stores shared
// between hosts.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/usage"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// DefaultKeyPrefix namespaces every key the repository writes.
const DefaultKeyPrefix = "credbind:usage:"

var _ ports.UsageRepository = (*UsageRepository)(nil)

// Config holds connection settings.
type Config struct {
	Addr      string
	Password  string
	KeyPrefix string
	DB        int
}

// saveScript writes the triple key and both index lists in one step, or
// nothing. KEYS: record, credential list, scope list. ARGV: payload.
var saveScript = redis.NewScript(`
for i = 2, 3 do
	local t = redis.call('TYPE', KEYS[i]).ok
	if t ~= 'none' and t ~= 'list' then
		return redis.error_reply('WRONGTYPE index key ' .. KEYS[i] .. ' holds ' .. t)
	end
end
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
	return 0
end
redis.call('LPUSH', KEYS[2], ARGV[1])
redis.call('LPUSH', KEYS[3], ARGV[1])
return 1
`)

// UsageRepository stores usage records in Redis. A SET NX on the triple key
// makes Save idempotent; each record is also prepended to a list per
// credential (newest first) and a list per scope, atomically with the key.
type UsageRepository struct {
	client *redis.Client
	prefix string
}

// NewUsageRepository connects to Redis.
func NewUsageRepository(cfg Config) *UsageRepository {
	return NewUsageRepositoryWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.KeyPrefix)
}

// NewUsageRepositoryWithClient wraps an existing client.
func NewUsageRepositoryWithClient(client *redis.Client, prefix string) *UsageRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &UsageRepository{client: client, prefix: prefix}
}

// Ping checks the connection.
func (r *UsageRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *UsageRepository) Close() error {
	return r.client.Close()
}

func (r *UsageRepository) recordKey(k usage.Key) string {
	return r.prefix + "record:" + k.String()
}

func (r *UsageRepository) credentialKey(id string) string {
	return r.prefix + "credential:" + id
}

func (r *UsageRepository) scopeKey(id values.ScopeID) string {
	return r.prefix + "scope:" + id.String()
}

// Save stores the record unless its triple already exists.
func (r *UsageRepository) Save(ctx context.Context, record usage.Record) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("encode usage record: %w", err)
	}

	keys := []string{
		r.recordKey(record.Key()),
		r.credentialKey(record.CredentialID),
		r.scopeKey(record.ScopeID),
	}
	created, err := saveScript.Run(ctx, r.client, keys, payload).Int()
	if err != nil {
		return false, fmt.Errorf("save usage %s: %w", record.Key(), err)
	}
	return created == 1, nil
}

// FindByCredential returns the newest records for a credential.
func (r *UsageRepository) FindByCredential(ctx context.Context, credentialID string, limit int) ([]usage.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	items, err := r.client.LRange(ctx, r.credentialKey(credentialID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("find usage for credential %q: %w", credentialID, err)
	}
	return decode(items)
}

// FindByScope returns every record emitted by one scope instance.
func (r *UsageRepository) FindByScope(ctx context.Context, scope values.ScopeID) ([]usage.Record, error) {
	items, err := r.client.LRange(ctx, r.scopeKey(scope), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("find usage for scope %s: %w", scope, err)
	}
	records, err := decode(items)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	return records, nil
}

func decode(items []string) ([]usage.Record, error) {
	records := make([]usage.Record, 0, len(items))
	for _, item := range items {
		var rec usage.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode usage record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
