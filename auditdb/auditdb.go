// Package auditdb is an append-only, bbolt-backed log of every dispatch and
// notification event the coordinator handles. It is pure observability: the
// scheduler never reads it back, on restart or otherwise (see the
// coordinator's Non-goals around persistent state) — it exists so an
// operator can inspect history (via All) or diff two runs. "rpmsynth
// monitor" does not read it; it polls the coordinator's HTTP endpoints.
//
// Grounded on the teacher's builddb package: same OpenDB-with-buckets shape,
// same DatabaseError wrapping, narrowed to the one append-only bucket this
// domain actually needs.
package auditdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// BucketEvents is the sole bbolt bucket: UUID -> JSON-encoded AuditRecord.
const BucketEvents = "events"

// Event names appended to the log.
const (
	EventDispatched      = "dispatched"
	EventNotifiedSuccess = "notified_success"
	EventNotifiedFailure = "notified_failure"
)

// AuditRecord is one entry in the log: a dispatch or a notification,
// identified by a fresh UUID rather than by (base, event) so that repeated
// events for the same base each get their own row.
type AuditRecord struct {
	UUID      string    `json:"uuid"`
	Base      string    `json:"base"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// DatabaseError wraps a bbolt operation failure with the operation and
// bucket involved.
type DatabaseError struct {
	Op     string
	Bucket string
	Err    error
}

func (e *DatabaseError) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("auditdb %s [bucket: %s]: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("auditdb %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// DB wraps a bbolt database holding the audit log.
type DB struct {
	db *bolt.DB
}

// Open opens or creates a bbolt database at path, initializing the events
// bucket if needed. The database is opened with 0600 permissions.
func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketEvents))
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, &DatabaseError{Op: "create bucket", Bucket: BucketEvents, Err: err}
	}

	return &DB{db: bdb}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Append writes one audit record, assigning it a fresh UUID and the given
// timestamp. It never takes the scheduler lock — callers append after
// releasing it, using values captured while the lock was held.
func (d *DB) Append(base, event string, timestamp time.Time) (*AuditRecord, error) {
	rec := &AuditRecord{
		UUID:      uuid.NewString(),
		Base:      base,
		Event:     event,
		Timestamp: timestamp,
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}

	err = d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketEvents))
		return b.Put([]byte(rec.UUID), payload)
	})
	if err != nil {
		return nil, &DatabaseError{Op: "put", Bucket: BucketEvents, Err: err}
	}
	return rec, nil
}

// All returns every audit record in bbolt's key order, i.e. sorted by UUID
// rather than by insertion (UUIDs are not time-ordered, so callers that need
// chronological order should sort on Timestamp).
func (d *DB) All() ([]*AuditRecord, error) {
	var out []*AuditRecord
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketEvents))
		return b.ForEach(func(k, v []byte) error {
			var rec AuditRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, &DatabaseError{Op: "scan", Bucket: BucketEvents, Err: err}
	}
	return out, nil
}
