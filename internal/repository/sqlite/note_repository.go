package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notes-service/internal/domain"
	"notes-service/internal/repository"
)

const createNotesTable = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	owner TEXT NOT NULL,
	data TEXT NULL,
	contributors TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (name, owner)
);
CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes (owner);
`

const selectNote = `
SELECT id, name, owner, data, contributors, created_at, updated_at
FROM notes`

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) repository.NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createNotesTable); err != nil {
		return fmt.Errorf("create notes table: %w", err)
	}
	return nil
}

// Insert assigns the note a fresh identifier and stores it. A note with the
// same name and owner already present yields repository.ErrDuplicate.
func (r *NoteRepository) Insert(ctx context.Context, note *domain.Note) error {
	contributors, err := encodeContributors(note.Contributors)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO notes (id, name, owner, data, contributors, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		note.Name,
		note.Owner,
		nullString(note.Data),
		contributors,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert note %q: %w", note.Name, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert note: %w", err)
	}

	note.ID = id
	note.CreatedAt = now
	note.UpdatedAt = now
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, selectNote+`
WHERE id = ?`, id)
	return scanNote(row)
}

func (r *NoteRepository) GetByNameOwner(ctx context.Context, name, owner string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, selectNote+`
WHERE name = ? AND owner = ?`, name, owner)
	return scanNote(row)
}

func (r *NoteRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Note, error) {
	return r.list(ctx, selectNote+`
WHERE owner = ?
ORDER BY rowid`, owner)
}

func (r *NoteRepository) ListByContributor(ctx context.Context, contributor string) ([]domain.Note, error) {
	return r.list(ctx, selectNote+`
WHERE EXISTS (SELECT 1 FROM json_each(notes.contributors) WHERE json_each.value = ?)
ORDER BY rowid`, contributor)
}

func (r *NoteRepository) Update(ctx context.Context, filter domain.NoteFilter, patch domain.NotePatch) (bool, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *patch.Name)
	}
	if patch.Data != nil {
		sets = append(sets, "data=?")
		args = append(args, *patch.Data)
	}
	if patch.Contributors != nil {
		contributors, err := encodeContributors(*patch.Contributors)
		if err != nil {
			return false, err
		}
		sets = append(sets, "contributors=?")
		args = append(args, contributors)
	}
	if len(sets) == 0 {
		return false, errors.New("update note: empty patch")
	}
	sets = append(sets, "updated_at=?")
	args = append(args, time.Now().UTC(), filter.ID, filter.Owner)

	res, err := r.db.ExecContext(ctx, `
UPDATE notes
SET `+strings.Join(sets, ", ")+`
WHERE id=? AND owner=?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("update note %s: %w", filter.ID, repository.ErrDuplicate)
		}
		return false, fmt.Errorf("update note: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update note rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *NoteRepository) Delete(ctx context.Context, filter domain.NoteFilter) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id=? AND owner=?`, filter.ID, filter.Owner)
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete note rows affected: %w", err)
	}
	return n, nil
}

func (r *NoteRepository) list(ctx context.Context, query string, args ...any) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(row interface {
	Scan(dest ...any) error
}) (*domain.Note, error) {
	var (
		note         domain.Note
		data         sql.NullString
		contributors string
	)
	if err := row.Scan(
		&note.ID,
		&note.Name,
		&note.Owner,
		&data,
		&contributors,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if data.Valid {
		note.Data = &data.String
	}
	if err := json.Unmarshal([]byte(contributors), &note.Contributors); err != nil {
		return nil, fmt.Errorf("decode note contributors: %w", err)
	}
	return &note, nil
}

func encodeContributors(contributors []string) (string, error) {
	if contributors == nil {
		contributors = []string{}
	}
	raw, err := json.Marshal(contributors)
	if err != nil {
		return "", fmt.Errorf("encode note contributors: %w", err)
	}
	return string(raw), nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
