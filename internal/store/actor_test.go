package store_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-service/internal/broker"
	"notes-service/internal/command"
	"notes-service/internal/domain"
	"notes-service/internal/repository"
	"notes-service/internal/repository/sqlite"
	"notes-service/internal/store"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func startActor(t *testing.T, users repository.UserRepository, notes repository.NoteRepository) *broker.Broker {
	t.Helper()
	logger := quietLogger()
	actor := store.NewActor(users, notes, logger)
	require.NoError(t, actor.Init(context.Background()))

	b := broker.New(broker.Config{Workers: 4, Logger: logger})
	actor.Register(b)
	require.NoError(t, b.Require(command.Kinds()...))
	t.Cleanup(b.Shutdown)
	return b
}

func sqliteBroker(t *testing.T) *broker.Broker {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "actor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return startActor(t, sqlite.NewUserRepository(db), sqlite.NewNoteRepository(db))
}

func strPtr(s string) *string { return &s }

func createNote(t *testing.T, b *broker.Broker, name, owner string) *domain.Note {
	t.Helper()
	note, err := broker.Request[*domain.Note](context.Background(), b, command.CreateNote,
		command.CreateNotePayload{Name: name, Owner: owner, Data: strPtr("d")})
	require.NoError(t, err)
	return note
}

func TestCreateUser_CheckThenAct(t *testing.T) {
	b := sqliteBroker(t)
	ctx := context.Background()
	payload := command.CreateUserPayload{Username: "alice", Password: "p", Role: domain.RoleUser}

	user, err := broker.Request[*domain.User](ctx, b, command.CreateUser, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	_, err = b.Send(ctx, command.CreateUser, payload)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetUser(t *testing.T) {
	b := sqliteBroker(t)
	ctx := context.Background()
	created, err := broker.Request[*domain.User](ctx, b, command.CreateUser,
		command.CreateUserPayload{Username: "alice", Password: "p", Role: domain.RoleUser})
	require.NoError(t, err)

	byName, err := broker.Request[*domain.User](ctx, b, command.GetUser, command.GetUserPayload{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := broker.Request[*domain.User](ctx, b, command.GetUser, command.GetUserPayload{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = b.Send(ctx, command.GetUser, command.GetUserPayload{Username: "nobody"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = b.Send(ctx, command.GetUser, command.GetUserPayload{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateNote_UniquePerOwner(t *testing.T) {
	b := sqliteBroker(t)
	ctx := context.Background()

	createNote(t, b, "n1", "u1")

	_, err := b.Send(ctx, command.CreateNote, command.CreateNotePayload{Name: "n1", Owner: "u1", Data: strPtr("d2")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	other := createNote(t, b, "n1", "u2")
	assert.Equal(t, "u2", other.Owner)
}

func TestGetNote_ReadableByOwnerAndContributors(t *testing.T) {
	b := sqliteBroker(t)
	ctx := context.Background()
	note := createNote(t, b, "n1", "u1")

	got, err := broker.Request[*domain.Note](ctx, b, command.GetNote, command.GetNotePayload{ID: note.ID, Reader: "u1"})
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	_, err = b.Send(ctx, command.GetNote, command.GetNotePayload{ID: note.ID, Reader: "u2"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	contributors := []string{"u2"}
	_, err = b.Send(ctx, command.UpdateNote, command.UpdateNotePayload{
		Filter: domain.NoteFilter{ID: note.ID, Owner: "u1"},
		Patch:  domain.NotePatch{Contributors: &contributors},
	})
	require.NoError(t, err)

	_, err = b.Send(ctx, command.GetNote, command.GetNotePayload{ID: note.ID, Reader: "u2"})
	assert.NoError(t, err)

	shared, err := broker.Request[[]domain.Note](ctx, b, command.ListSharedNotes, command.ListSharedNotesPayload{Contributor: "u2"})
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, note.ID, shared[0].ID)

	_, err = b.Send(ctx, command.GetNote, command.GetNotePayload{ID: "missing", Reader: "u1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNotes_EmptyIsNotAnError(t *testing.T) {
	b := sqliteBroker(t)

	notes, err := broker.Request[[]domain.Note](context.Background(), b, command.ListNotes, command.ListNotesPayload{Owner: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestUpdateAndDelete_OwnerScoped(t *testing.T) {
	b := sqliteBroker(t)
	ctx := context.Background()
	note := createNote(t, b, "n1", "u1")

	_, err := b.Send(ctx, command.UpdateNote, command.UpdateNotePayload{
		Filter: domain.NoteFilter{ID: note.ID, Owner: "u2"},
		Patch:  domain.NotePatch{Data: strPtr("x")},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = b.Send(ctx, command.DeleteNote, command.DeleteNotePayload{Filter: domain.NoteFilter{ID: note.ID, Owner: "u2"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = b.Send(ctx, command.UpdateNote, command.UpdateNotePayload{
		Filter: domain.NoteFilter{ID: note.ID, Owner: "u1"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = b.Send(ctx, command.UpdateNote, command.UpdateNotePayload{
		Filter: domain.NoteFilter{ID: note.ID, Owner: "u1"},
		Patch:  domain.NotePatch{Data: strPtr("x")},
	})
	require.NoError(t, err)

	got, err := broker.Request[*domain.Note](ctx, b, command.GetNote, command.GetNotePayload{ID: note.ID, Reader: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "x", *got.Data)

	_, err = b.Send(ctx, command.DeleteNote, command.DeleteNotePayload{Filter: domain.NoteFilter{ID: note.ID, Owner: "u1"}})
	require.NoError(t, err)

	_, err = b.Send(ctx, command.GetNote, command.GetNotePayload{ID: note.ID, Reader: "u1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateNote_RenameConflict(t *testing.T) {
	b := sqliteBroker(t)
	createNote(t, b, "a", "u1")
	note := createNote(t, b, "b", "u1")

	_, err := b.Send(context.Background(), command.UpdateNote, command.UpdateNotePayload{
		Filter: domain.NoteFilter{ID: note.ID, Owner: "u1"},
		Patch:  domain.NotePatch{Name: strPtr("a")},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestWrongPayloadType(t *testing.T) {
	b := sqliteBroker(t)

	_, err := b.Send(context.Background(), command.CreateNote, "not a payload")
	assert.ErrorIs(t, err, domain.ErrUnknown)
}

var errDisk = errors.New("disk I/O error")

// racingUsers reports every username as free but rejects the insert, the
// way a concurrent registration that won the race would.
type racingUsers struct {
	repository.UserRepository
}

func (racingUsers) Init(context.Context) error { return nil }
func (racingUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}
func (racingUsers) Insert(context.Context, *domain.User) error {
	return repository.ErrDuplicate
}

// failingNotes fails every operation with a driver error.
type failingNotes struct {
	repository.NoteRepository
}

func (failingNotes) Init(context.Context) error { return nil }
func (failingNotes) GetByID(context.Context, string) (*domain.Note, error) {
	return nil, errDisk
}
func (failingNotes) GetByNameOwner(context.Context, string, string) (*domain.Note, error) {
	return nil, repository.ErrNotFound
}
func (failingNotes) Insert(context.Context, *domain.Note) error { return errDisk }
func (failingNotes) ListByOwner(context.Context, string) ([]domain.Note, error) {
	return nil, errDisk
}
func (failingNotes) Update(context.Context, domain.NoteFilter, domain.NotePatch) (bool, error) {
	return false, errDisk
}
func (failingNotes) Delete(context.Context, domain.NoteFilter) (int64, error) {
	return 0, errDisk
}

func TestCreateUser_InsertRaceIsConflict(t *testing.T) {
	b := startActor(t, racingUsers{}, failingNotes{})

	_, err := b.Send(context.Background(), command.CreateUser, command.CreateUserPayload{Username: "alice", Password: "p"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStorageFailuresBecomeUnknown(t *testing.T) {
	b := startActor(t, racingUsers{}, failingNotes{})
	ctx := context.Background()
	filter := domain.NoteFilter{ID: "n", Owner: "u"}

	cases := []struct {
		name    string
		kind    command.Kind
		payload any
	}{
		{"insert", command.CreateNote, command.CreateNotePayload{Name: "n", Owner: "u"}},
		{"get", command.GetNote, command.GetNotePayload{ID: "n", Reader: "u"}},
		{"list", command.ListNotes, command.ListNotesPayload{Owner: "u"}},
		{"update", command.UpdateNote, command.UpdateNotePayload{Filter: filter, Patch: domain.NotePatch{Data: strPtr("x")}}},
		{"delete", command.DeleteNote, command.DeleteNotePayload{Filter: filter}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.Send(ctx, tc.kind, tc.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUnknown)
			assert.Equal(t, "Unknown error occurred", domain.DetailOf(err))
		})
	}
}
