package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/reglet-dev/credbind/internal/application/ports"
	"github.com/reglet-dev/credbind/internal/domain/usage"
	"github.com/reglet-dev/credbind/internal/domain/values"
)

// Compile-time interface satisfaction check.
var _ ports.UsageRepository = (*UsageRepository)(nil)

// UsageRepository stores usage records in SQLite. The unique index on
// (credential_id, consumer_id, scope_id) makes Save idempotent.
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a repository over db.
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Save inserts the record unless its triple already exists.
func (r *UsageRepository) Save(ctx context.Context, record usage.Record) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}

	const query = `INSERT OR IGNORE INTO usage_records (credential_id, consumer_id, scope_id, recorded_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query,
		record.CredentialID, record.ConsumerID, record.ScopeID.String(), record.RecordedAt.UnixNano())
	if err != nil {
		return false, fmt.Errorf("save usage %s: %w", record.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save usage %s: %w", record.Key(), err)
	}
	return n > 0, nil
}

// FindByCredential returns the newest records for a credential.
func (r *UsageRepository) FindByCredential(ctx context.Context, credentialID string, limit int) ([]usage.Record, error) {
	query := `SELECT credential_id, consumer_id, scope_id, recorded_at FROM usage_records
		WHERE credential_id = ? ORDER BY recorded_at DESC, id DESC`
	args := []any{credentialID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find usage for credential %q: %w", credentialID, err)
	}
	return scanRecords(rows)
}

// FindByScope returns every record emitted by one scope instance.
func (r *UsageRepository) FindByScope(ctx context.Context, scope values.ScopeID) ([]usage.Record, error) {
	const query = `SELECT credential_id, consumer_id, scope_id, recorded_at FROM usage_records
		WHERE scope_id = ? ORDER BY recorded_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, scope.String())
	if err != nil {
		return nil, fmt.Errorf("find usage for scope %s: %w", scope, err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]usage.Record, error) {
	defer func() { _ = rows.Close() }()

	var records []usage.Record
	for rows.Next() {
		var (
			rec     usage.Record
			scopeID string
			nanos   int64
		)
		if err := rows.Scan(&rec.CredentialID, &rec.ConsumerID, &scopeID, &nanos); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		id, err := values.ParseScopeID(scopeID)
		if err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		rec.ScopeID = id
		rec.RecordedAt = time.Unix(0, nanos).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage records: %w", err)
	}
	return records, nil
}
