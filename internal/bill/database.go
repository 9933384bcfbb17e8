package bill

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	billBucketName        = "bills"
	fingerprintBucketName = "fingerprints"
	validationBucketName  = "validations"
)

// Store defines the persistence contract for bill records and verdicts
type Store interface {
	// InsertIfAbsent assigns the next id and persists the record, or
	// returns ErrDuplicateFile without mutating anything when a record
	// with the same fingerprint already exists. The check and the insert
	// happen in one transaction.
	InsertIfAbsent(record *BillRecord) (uint64, error)

	// ContainsFingerprint reports whether a record with the fingerprint
	// exists. Callers use it as a cheap pre-check; InsertIfAbsent remains
	// the authority under concurrent ingestion.
	ContainsFingerprint(fingerprint string) (bool, error)

	// Get retrieves a bill by id; ErrNotFound when absent
	Get(id uint64) (*BillRecord, error)

	// List returns all bills, newest id first
	List() ([]*BillRecord, error)

	// UpsertValidation stores the verdict for a bill, replacing any
	// previous one. At most one verdict exists per bill.
	UpsertValidation(validation *ValidationRecord) error

	// ListValidations returns all cached verdicts, newest bill first
	ListValidations() ([]*ValidationRecord, error)

	// DeleteAll removes every bill, fingerprint and verdict
	DeleteAll() error

	// Close closes the store
	Close() error
}

// BoltStore implements the Store interface using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (creating if needed) a BoltDB-backed store
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{billBucketName, fingerprintBucketName, validationBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// itob encodes an id as a big-endian key so bucket order is id order
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// InsertIfAbsent persists the record under the next sequence id unless its
// fingerprint is already indexed. Both the uniqueness check and the writes
// run inside a single update transaction.
func (b *BoltStore) InsertIfAbsent(record *BillRecord) (uint64, error) {
	var id uint64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		fingerprints := tx.Bucket([]byte(fingerprintBucketName))
		if fingerprints.Get([]byte(record.Fingerprint)) != nil {
			return fmt.Errorf("%w: fingerprint %s", ErrDuplicateFile, record.Fingerprint)
		}

		bills := tx.Bucket([]byte(billBucketName))
		seq, err := bills.NextSequence()
		if err != nil {
			return fmt.Errorf("assigning bill id: %w", err)
		}
		record.ID = seq

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling bill: %w", err)
		}
		if err := bills.Put(itob(seq), data); err != nil {
			return err
		}
		if err := fingerprints.Put([]byte(record.Fingerprint), itob(seq)); err != nil {
			return err
		}
		id = seq
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ContainsFingerprint reports whether the fingerprint is already indexed
func (b *BoltStore) ContainsFingerprint(fingerprint string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(fingerprintBucketName)).Get([]byte(fingerprint)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Get retrieves a bill by id
func (b *BoltStore) Get(id uint64) (*BillRecord, error) {
	var record *BillRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(billBucketName)).Get(itob(id))
		if data == nil {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// List returns all bills, newest id first
func (b *BoltStore) List() ([]*BillRecord, error) {
	records := make([]*BillRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(billBucketName)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var record BillRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling bill: %w", err)
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertValidation stores the verdict for a bill, replacing any previous one
func (b *BoltStore) UpsertValidation(validation *ValidationRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(validation)
		if err != nil {
			return fmt.Errorf("marshaling validation: %w", err)
		}
		return tx.Bucket([]byte(validationBucketName)).Put(itob(validation.BillID), data)
	})
}

// ListValidations returns all cached verdicts, newest bill first
func (b *BoltStore) ListValidations() ([]*ValidationRecord, error) {
	validations := make([]*ValidationRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(validationBucketName)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var validation ValidationRecord
			if err := json.Unmarshal(v, &validation); err != nil {
				return fmt.Errorf("unmarshaling validation: %w", err)
			}
			validations = append(validations, &validation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return validations, nil
}

// DeleteAll drops and recreates every bucket
func (b *BoltStore) DeleteAll() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{billBucketName, fingerprintBucketName, validationBucketName} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("deleting bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("recreating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying database
func (b *BoltStore) Close() error {
	return b.db.Close()
}
