// Package store provides collection-addressed document persistence over SQL.
// Documents are (collection, id, fields) triples with the fields kept as JSON,
// which keeps both backends interchangeable behind the same contract: single
// document writes are atomic, and a read sees every write that completed
// before it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrAbsent reports that no document exists under the requested id.
var ErrAbsent = errors.New("store: document absent")

// Fields is the decoded JSON payload of a document.
type Fields map[string]any

// Record pairs a document id with its fields.
type Record struct {
	ID     string
	Fields Fields
}

// Store is collection-oriented persistence. Set overwrites the whole document,
// MergeSet updates only the named fields, SetAll applies a batch of documents
// in one transaction (all or nothing). Delete of an absent document is a
// no-op; callers that need to distinguish check with Get first.
type Store interface {
	Get(ctx context.Context, collection, id string) (Fields, error)
	Set(ctx context.Context, collection, id string, fields Fields) error
	MergeSet(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Record, error)
	Query(ctx context.Context, collection, field string, value any) ([]Record, error)
	SetAll(ctx context.Context, collection string, docs map[string]Fields) error
	Close() error
}

// Open selects a backend from the DSN: postgres:// and postgresql:// URLs get
// the pgx backend, anything else is treated as a SQLite database path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(dsn)
}

func encodeFields(fields Fields) ([]byte, error) {
	if fields == nil {
		fields = Fields{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("store: encode fields: %w", err)
	}
	return raw, nil
}

func decodeFields(raw []byte) (Fields, error) {
	fields := Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("store: decode fields: %w", err)
	}
	return fields, nil
}
