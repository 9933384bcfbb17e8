package bill

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	billCollectionName       = "bills"
	validationCollectionName = "validations"
	counterCollectionName    = "counters"

	mongoOpTimeout = 5 * time.Second
)

// DataStore is the slice of collection operations MongoStore relies on.
// *mongo.Collection satisfies it directly; tests substitute fakes.
type DataStore interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// MongoStore implements the Store interface backed by MongoDB. Fingerprint
// uniqueness is enforced by a unique index rather than a read-then-write,
// so concurrent ingestion of the same file cannot admit two records.
type MongoStore struct {
	client      *mongo.Client
	bills       DataStore
	validations DataStore
	counters    DataStore
}

// NewMongoStore connects to MongoDB and prepares the collections and their
// uniqueness indexes.
func NewMongoStore(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(dbName)

	_, err = db.Collection(billCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_fingerprint", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("creating fingerprint index: %w", err)
	}

	_, err = db.Collection(validationCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bill_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("creating validation index: %w", err)
	}

	return &MongoStore{
		client:      client,
		bills:       db.Collection(billCollectionName),
		validations: db.Collection(validationCollectionName),
		counters:    db.Collection(counterCollectionName),
	}, nil
}

// NewMongoStoreWithCollections builds a MongoStore over externally supplied
// collections, for testing without a live server.
func NewMongoStoreWithCollections(bills, validations, counters DataStore) *MongoStore {
	return &MongoStore{
		bills:       bills,
		validations: validations,
		counters:    counters,
	}
}

func (m *MongoStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mongoOpTimeout)
}

// nextID increments and returns the monotonic bill counter
func (m *MongoStore) nextID(ctx context.Context) (uint64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": billCollectionName},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("incrementing bill counter: %w", err)
	}
	return uint64(counter.Seq), nil
}

// InsertIfAbsent assigns the next id and inserts the record. A duplicate
// fingerprint is rejected by the unique index and reported as
// ErrDuplicateFile. A rejected insert leaves a gap in the id sequence,
// which is harmless.
func (m *MongoStore) InsertIfAbsent(record *BillRecord) (uint64, error) {
	ctx, cancel := m.opContext()
	defer cancel()

	id, err := m.nextID(ctx)
	if err != nil {
		return 0, err
	}
	record.ID = id

	if _, err := m.bills.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: fingerprint %s", ErrDuplicateFile, record.Fingerprint)
		}
		return 0, fmt.Errorf("inserting bill: %w", err)
	}
	return id, nil
}

// ContainsFingerprint reports whether a record with the fingerprint exists
func (m *MongoStore) ContainsFingerprint(fingerprint string) (bool, error) {
	ctx, cancel := m.opContext()
	defer cancel()

	count, err := m.bills.CountDocuments(ctx, bson.M{"file_fingerprint": fingerprint})
	if err != nil {
		return false, fmt.Errorf("counting fingerprints: %w", err)
	}
	return count > 0, nil
}

// Get retrieves a bill by id
func (m *MongoStore) Get(id uint64) (*BillRecord, error) {
	ctx, cancel := m.opContext()
	defer cancel()

	var record BillRecord
	err := m.bills.FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("finding bill: %w", err)
	}
	return &record, nil
}

// List returns all bills, newest id first
func (m *MongoStore) List() ([]*BillRecord, error) {
	ctx, cancel := m.opContext()
	defer cancel()

	cursor, err := m.bills.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	records := make([]*BillRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decoding bills: %w", err)
	}
	return records, nil
}

// UpsertValidation stores the verdict for a bill, replacing any previous one
func (m *MongoStore) UpsertValidation(validation *ValidationRecord) error {
	ctx, cancel := m.opContext()
	defer cancel()

	_, err := m.validations.ReplaceOne(ctx,
		bson.M{"bill_id": validation.BillID},
		validation,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upserting validation: %w", err)
	}
	return nil
}

// ListValidations returns all cached verdicts, newest bill first
func (m *MongoStore) ListValidations() ([]*ValidationRecord, error) {
	ctx, cancel := m.opContext()
	defer cancel()

	cursor, err := m.validations.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "bill_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("listing validations: %w", err)
	}
	validations := make([]*ValidationRecord, 0)
	if err := cursor.All(ctx, &validations); err != nil {
		return nil, fmt.Errorf("decoding validations: %w", err)
	}
	return validations, nil
}

// DeleteAll removes every bill, verdict and the id counter
func (m *MongoStore) DeleteAll() error {
	ctx, cancel := m.opContext()
	defer cancel()

	for name, collection := range map[string]DataStore{
		billCollectionName:       m.bills,
		validationCollectionName: m.validations,
		counterCollectionName:    m.counters,
	} {
		if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects from MongoDB
func (m *MongoStore) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := m.opContext()
	defer cancel()
	return m.client.Disconnect(ctx)
}
