package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
)

// EntriesCollection is the collection holding every user's entries.
const EntriesCollection = "entries"

const opTimeout = 5 * time.Second

// FieldCipher seals entry text at rest. *utils.Cipher implements it.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type entryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID   string             `bson:"owner_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Mood      string             `bson:"mood"`
	Tags      []string           `bson:"tags"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
	Revision  int64              `bson:"revision"`
}

// MongoBackend stores entries as documents. Timestamps come from the
// database clock via $currentDate; changes are announced through a Notifier.
type MongoBackend struct {
	coll     *mongo.Collection
	notifier Notifier
	cipher   FieldCipher
	log      *slog.Logger
}

// NewMongoBackend wires a backend on db. cipher may be nil.
func NewMongoBackend(db *mongo.Database, notifier Notifier, cipher FieldCipher, log *slog.Logger) *MongoBackend {
	return &MongoBackend{
		coll:     db.Collection(EntriesCollection),
		notifier: notifier,
		cipher:   cipher,
		log:      log.With(logger.Component, logger.ComponentStore),
	}
}

// EnsureIndexes creates the owner-scoped ordering index.
func (b *MongoBackend) EnsureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("owner_created_desc"),
	})
	return err
}

func (b *MongoBackend) Listen(ctx context.Context, ownerID string) (<-chan Change, error) {
	// Subscribe before the first read so no change falls in between.
	subCtx, cancel := context.WithCancel(ctx)
	signals, err := b.notifier.Subscribe(subCtx, ownerID)
	if err != nil {
		cancel()
		return nil, err
	}
	initial, err := b.List(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Change, 1)
	offer(out, Change{Entries: initial})

	go func() {
		defer cancel()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					if ctx.Err() == nil {
						offer(out, Change{Err: fmt.Errorf("%w: change stream ended", ErrUnavailable)})
					}
					return
				}
				entries, err := b.List(ctx, ownerID)
				if err != nil {
					if ctx.Err() == nil {
						offer(out, Change{Err: err})
					}
					return
				}
				offer(out, Change{Entries: entries})
			}
		}
	}()
	return out, nil
}

func (b *MongoBackend) List(ctx context.Context, ownerID string) ([]models.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := b.coll.Find(ctx, bson.M{"owner_id": ownerID}, findOptions)
	if err != nil {
		return nil, unavailable(err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable(err)
	}

	entries := make([]models.Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := b.fromDocument(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	// Mongo sorts _id ascending as bytes; re-sort so ties follow the string order.
	models.SortEntries(entries)
	return entries, nil
}

func (b *MongoBackend) Get(ctx context.Context, id string) (models.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc entryDocument
	if err := b.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return models.Entry{}, unavailable(err)
	}
	return b.fromDocument(doc)
}

func (b *MongoBackend) Create(ctx context.Context, entry models.Entry) (models.Entry, error) {
	title, content, err := b.seal(entry.Title, entry.Content)
	if err != nil {
		return models.Entry{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Upsert on a fresh id so created_at comes from the server clock.
	update := bson.M{
		"$setOnInsert": bson.M{
			"owner_id": entry.OwnerID,
			"title":    title,
			"content":  content,
			"mood":     string(entry.Mood),
			"tags":     models.NormalizeTags(entry.Tags),
			"revision": int64(1),
		},
		"$currentDate": bson.M{"created_at": true, "updated_at": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc entryDocument
	err = b.coll.FindOneAndUpdate(ctx, bson.M{"_id": primitive.NewObjectID()}, update, opts).Decode(&doc)
	if err != nil {
		return models.Entry{}, unavailable(err)
	}

	b.announce(ctx, entry.OwnerID)
	return b.fromDocument(doc)
}

func (b *MongoBackend) Update(ctx context.Context, ownerID, id string, patch models.EntryPatch) (models.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	set := bson.M{}
	if patch.Title != nil {
		if set["title"], err = b.sealOne(*patch.Title); err != nil {
			return models.Entry{}, err
		}
	}
	if patch.Content != nil {
		if set["content"], err = b.sealOne(*patch.Content); err != nil {
			return models.Entry{}, err
		}
	}
	if patch.Mood != nil {
		set["mood"] = string(*patch.Mood)
	}
	if patch.Tags != nil {
		set["tags"] = models.NormalizeTags(*patch.Tags)
	}

	update := bson.M{
		"$currentDate": bson.M{"updated_at": true},
		"$inc":         bson.M{"revision": 1},
	}
	if len(set) > 0 {
		update["$set"] = set
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc entryDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = b.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "owner_id": ownerID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Entry{}, b.missing(ctx, oid, id)
		}
		return models.Entry{}, unavailable(err)
	}

	b.announce(ctx, ownerID)
	return b.fromDocument(doc)
}

func (b *MongoBackend) Delete(ctx context.Context, ownerID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := b.coll.DeleteOne(ctx, bson.M{"_id": oid, "owner_id": ownerID})
	if err != nil {
		return unavailable(err)
	}
	if res.DeletedCount == 0 {
		return b.missing(ctx, oid, id)
	}

	b.announce(ctx, ownerID)
	return nil
}

// missing tells apart an absent entry from one owned by someone else after
// an owner-scoped write matched nothing.
func (b *MongoBackend) missing(ctx context.Context, oid primitive.ObjectID, id string) error {
	n, err := b.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return unavailable(err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrForbidden, id)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// announce publishes a change. The write already succeeded, so a failed
// publish is logged and not returned.
func (b *MongoBackend) announce(ctx context.Context, ownerID string) {
	if err := b.notifier.Publish(ctx, ownerID); err != nil {
		b.log.Warn("change notification failed", logger.OwnerID, ownerID, logger.Error, err)
	}
}

func (b *MongoBackend) seal(title, content string) (string, string, error) {
	t, err := b.sealOne(title)
	if err != nil {
		return "", "", err
	}
	c, err := b.sealOne(content)
	if err != nil {
		return "", "", err
	}
	return t, c, nil
}

func (b *MongoBackend) sealOne(s string) (string, error) {
	if b.cipher == nil {
		return s, nil
	}
	out, err := b.cipher.Encrypt(s)
	if err != nil {
		return "", fmt.Errorf("encrypt entry: %w", err)
	}
	return out, nil
}

func (b *MongoBackend) openOne(s string) (string, error) {
	if b.cipher == nil {
		return s, nil
	}
	out, err := b.cipher.Decrypt(s)
	if err != nil {
		return "", fmt.Errorf("decrypt entry: %w", err)
	}
	return out, nil
}

func (b *MongoBackend) fromDocument(doc entryDocument) (models.Entry, error) {
	title, err := b.openOne(doc.Title)
	if err != nil {
		return models.Entry{}, err
	}
	content, err := b.openOne(doc.Content)
	if err != nil {
		return models.Entry{}, err
	}

	m, ok := mood.Parse(doc.Mood)
	if !ok {
		m = mood.Neutral
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Entry{
		ID:        doc.ID.Hex(),
		OwnerID:   doc.OwnerID,
		Title:     title,
		Content:   content,
		Mood:      m,
		Tags:      tags,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
		Revision:  doc.Revision,
	}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
