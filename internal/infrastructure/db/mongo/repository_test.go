package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// MONGO_TEST_URI must point at a replica set; note creation and deletion run
// in multi-document transactions.
const testURIEnv = "MONGO_TEST_URI"

type repos struct {
	users      *UserRepository
	notes      *NoteRepository
	categories *CategoryRepository
}

// newTestRepos connects to a throwaway database that is dropped when the test
// ends. The test is skipped when no server is configured.
func newTestRepos(t *testing.T) repos {
	t.Helper()
	uri := os.Getenv(testURIEnv)
	if uri == "" {
		t.Skipf("%s not set", testURIEnv)
	}

	ctx := context.Background()
	name := fmt.Sprintf("notes_test_%d", time.Now().UnixNano())
	client, db, err := Connect(ctx, Config{URI: uri, Database: name, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	ids, err := NewIDGenerator(7)
	if err != nil {
		t.Fatalf("id generator: %v", err)
	}
	return repos{
		users:      NewUserRepository(db, ids),
		notes:      NewNoteRepository(db, ids),
		categories: NewCategoryRepository(db, ids),
	}
}

func createNote(t *testing.T, r repos, userID int64, content string, categories ...string) *domain.Note {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	note := &domain.Note{Content: content, CreatedAt: now, UpdatedAt: now, UserID: userID}
	for _, name := range categories {
		note.Categories = append(note.Categories, domain.Category{Name: name})
	}
	if err := r.notes.CreateWithCategories(context.Background(), note); err != nil {
		t.Fatalf("create note: %v", err)
	}
	return note
}

func TestMongoUserRepository_CreateFindDuplicate(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	user := &domain.User{Username: "alice", PasswordHash: "hash"}
	if err := r.users.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected generated id")
	}

	got, err := r.users.FindByUsername(ctx, "alice")
	if err != nil || got.ID != user.ID || got.PasswordHash != "hash" {
		t.Fatalf("find: got %+v, %v", got, err)
	}

	if err := r.users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("duplicate: want ErrUserExists, got %v", err)
	}
	if _, err := r.users.FindByUsername(ctx, "bob"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("missing: want ErrUserNotFound, got %v", err)
	}
}

func TestMongoNoteRepository_CreateRoundTrip(t *testing.T) {
	r := newTestRepos(t)

	note := createNote(t, r, 1, "hello", "a", "b")
	if note.ID == 0 || note.Categories[0].NoteID != note.ID {
		t.Fatalf("ids not assigned: %+v", note)
	}

	got, err := r.notes.FindByID(context.Background(), note.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Content != "hello" || got.UserID != 1 || len(got.Categories) != 2 {
		t.Fatalf("unexpected note %+v", got)
	}
	if got.Categories[0].Name != "a" || got.Categories[1].Name != "b" {
		t.Errorf("categories must keep insertion order, got %+v", got.Categories)
	}

	if _, err := r.notes.FindByID(context.Background(), note.ID+1); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("want ErrNoteNotFound, got %v", err)
	}
}

func TestMongoNoteRepository_FindByOwnerScoped(t *testing.T) {
	r := newTestRepos(t)
	first := createNote(t, r, 1, "one", "x")
	createNote(t, r, 2, "other")
	second := createNote(t, r, 1, "two")

	notes, err := r.notes.FindByOwner(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 2 || notes[0].ID != first.ID || notes[1].ID != second.ID {
		t.Fatalf("expected user 1 notes in id order, got %+v", notes)
	}
	if len(notes[0].Categories) != 1 || notes[1].Categories == nil {
		t.Errorf("categories must be embedded, got %+v", notes)
	}

	empty, err := r.notes.FindByOwner(context.Background(), 3)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}
}

func TestMongoNoteRepository_UpdateAndDeleteCascade(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	note := createNote(t, r, 1, "v1", "a")

	note.Content = "v2"
	note.IsArchived = true
	if err := r.notes.Update(ctx, note); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := r.notes.FindByID(ctx, note.ID)
	if got.Content != "v2" || !got.IsArchived {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := r.notes.DeleteCascade(ctx, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cats, err := r.categories.FindByNote(ctx, note.ID)
	if err != nil || len(cats) != 0 {
		t.Fatalf("categories must be removed with the note, got %v %v", cats, err)
	}
	if err := r.notes.DeleteCascade(ctx, note.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("second delete: want ErrNoteNotFound, got %v", err)
	}
	if err := r.notes.Update(ctx, note); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("update deleted: want ErrNoteNotFound, got %v", err)
	}
}

func TestMongoNoteRepository_NoteIDsWithCategoryNameDistinct(t *testing.T) {
	r := newTestRepos(t)
	twice := createNote(t, r, 1, "twice", "work", "work")
	once := createNote(t, r, 1, "once", "work", "home")
	none := createNote(t, r, 1, "none", "home")
	foreign := createNote(t, r, 2, "foreign", "work")

	ids, err := r.notes.NoteIDsWithCategoryName(context.Background(), "work", []int64{twice.ID, once.ID, none.ID})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 2 || ids[0] != twice.ID || ids[1] != once.ID {
		t.Fatalf("expected each matching note once, got %v (foreign %d)", ids, foreign.ID)
	}

	ids, err = r.notes.NoteIDsWithCategoryName(context.Background(), "work", nil)
	if err != nil || len(ids) != 0 {
		t.Fatalf("empty scope must yield no ids, got %v %v", ids, err)
	}
}

func TestMongoCategoryRepository_Lifecycle(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	note := createNote(t, r, 1, "n", "a")

	added := &domain.Category{Name: "b", NoteID: note.ID}
	if err := r.categories.Create(ctx, added); err != nil {
		t.Fatalf("create: %v", err)
	}
	cats, err := r.categories.FindByNote(ctx, note.ID)
	if err != nil || len(cats) != 2 || cats[1].ID != added.ID {
		t.Fatalf("expected appended category, got %+v %v", cats, err)
	}

	if err := r.categories.Rename(ctx, added.ID, "c"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := r.categories.FindByID(ctx, added.ID)
	if err != nil || got.Name != "c" {
		t.Fatalf("rename not persisted: %+v %v", got, err)
	}

	if err := r.categories.Delete(ctx, added.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.categories.FindByID(ctx, added.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("find deleted: want ErrCategoryNotFound, got %v", err)
	}
	if err := r.categories.Delete(ctx, added.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("delete twice: want ErrCategoryNotFound, got %v", err)
	}
	if err := r.categories.Rename(ctx, added.ID, "d"); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("rename deleted: want ErrCategoryNotFound, got %v", err)
	}
}

func TestConnect_UnreachableFailsPing(t *testing.T) {
	_, _, err := Connect(context.Background(), Config{URI: "mongodb://127.0.0.1:1", Database: "x", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected ping error for an unreachable server")
	}
}
