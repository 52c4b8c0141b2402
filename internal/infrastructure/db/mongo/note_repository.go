package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

type noteDoc struct {
	ID         int64     `bson:"_id"`
	Content    string    `bson:"content"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
	IsArchived bool      `bson:"is_archived"`
	UserID     int64     `bson:"user_id"`
}

type categoryDoc struct {
	ID     int64  `bson:"_id"`
	Name   string `bson:"name"`
	NoteID int64  `bson:"note_id"`
}

func (d noteDoc) toDomain(cats []categoryDoc) domain.Note {
	out := make([]domain.Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.toDomain())
	}
	return domain.Note{
		ID:         d.ID,
		Content:    d.Content,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		IsArchived: d.IsArchived,
		UserID:     d.UserID,
		Categories: out,
	}
}

func (d categoryDoc) toDomain() domain.Category {
	return domain.Category{ID: d.ID, Name: d.Name, NoteID: d.NoteID}
}

// NoteRepository keeps notes and categories in separate collections.
// Multi-document writes use transactions, which need a replica set.
type NoteRepository struct {
	client     *mongo.Client
	notes      *mongo.Collection
	categories *mongo.Collection
	ids        *IDGenerator
}

func NewNoteRepository(db *mongo.Database, ids *IDGenerator) *NoteRepository {
	return &NoteRepository{
		client:     db.Client(),
		notes:      db.Collection(notesCollection),
		categories: db.Collection(categoriesCollection),
		ids:        ids,
	}
}

func (r *NoteRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *NoteRepository) CreateWithCategories(ctx context.Context, note *domain.Note) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := noteDoc{
		ID:         r.ids.Next(),
		Content:    note.Content,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
		IsArchived: note.IsArchived,
		UserID:     note.UserID,
	}
	cats := make([]interface{}, len(note.Categories))
	catIDs := make([]int64, len(note.Categories))
	for i, c := range note.Categories {
		catIDs[i] = r.ids.Next()
		cats[i] = categoryDoc{ID: catIDs[i], Name: c.Name, NoteID: doc.ID}
	}

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.notes.InsertOne(sc, doc); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		if len(cats) > 0 {
			if _, err := r.categories.InsertMany(sc, cats); err != nil {
				return fmt.Errorf("insert categories: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	note.ID = doc.ID
	for i := range note.Categories {
		note.Categories[i].ID = catIDs[i]
		note.Categories[i].NoteID = doc.ID
	}
	return nil
}

func (r *NoteRepository) FindByOwner(ctx context.Context, userID int64) ([]domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.notes.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	var docs []noteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if len(docs) == 0 {
		return []domain.Note{}, nil
	}

	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	byNote, err := r.categoriesFor(ctx, bson.M{"note_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	notes := make([]domain.Note, 0, len(docs))
	for _, d := range docs {
		notes = append(notes, d.toDomain(byNote[d.ID]))
	}
	return notes, nil
}

func (r *NoteRepository) FindByID(ctx context.Context, noteID int64) (*domain.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc noteDoc
	if err := r.notes.FindOne(ctx, bson.M{"_id": noteID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}

	byNote, err := r.categoriesFor(ctx, bson.M{"note_id": noteID})
	if err != nil {
		return nil, err
	}
	note := doc.toDomain(byNote[noteID])
	return &note, nil
}

func (r *NoteRepository) categoriesFor(ctx context.Context, filter bson.M) (map[int64][]categoryDoc, error) {
	cur, err := r.categories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make(map[int64][]categoryDoc)
	for _, c := range docs {
		out[c.NoteID] = append(out[c.NoteID], c)
	}
	return out, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.notes.UpdateByID(ctx, note.ID, bson.M{"$set": bson.M{
		"content":     note.Content,
		"is_archived": note.IsArchived,
		"updated_at":  note.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) DeleteCascade(ctx context.Context, noteID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.categories.DeleteMany(sc, bson.M{"note_id": noteID}); err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		res, err := r.notes.DeleteOne(sc, bson.M{"_id": noteID})
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrNoteNotFound
		}
		return nil
	})
}

func (r *NoteRepository) NoteIDsWithCategoryName(ctx context.Context, name string, noteIDs []int64) ([]int64, error) {
	if len(noteIDs) == 0 {
		return []int64{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw, err := r.categories.Distinct(ctx, "note_id", bson.M{"name": name, "note_id": bson.M{"$in": noteIDs}})
	if err != nil {
		return nil, fmt.Errorf("filter categories: %w", err)
	}

	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case int64:
			ids = append(ids, id)
		case int32:
			ids = append(ids, int64(id))
		}
	}
	return ids, nil
}
