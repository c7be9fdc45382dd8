package domain

import "time"

// Note is a named text document owned by a single user.
type Note struct {
	ID           string
	Name         string
	Owner        string
	Data         *string
	Contributors []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReadableBy reports whether userID owns the note or contributes to it.
func (n *Note) ReadableBy(userID string) bool {
	if n.Owner == userID {
		return true
	}
	for _, c := range n.Contributors {
		if c == userID {
			return true
		}
	}
	return false
}

// NotePatch is a partial replacement of note fields. Nil fields are left untouched.
type NotePatch struct {
	Name         *string
	Data         *string
	Contributors *[]string
}

// Empty reports whether the patch carries no field at all.
func (p NotePatch) Empty() bool {
	return p.Name == nil && p.Data == nil && p.Contributors == nil
}

// NoteFilter selects a single note scoped to its owner.
type NoteFilter struct {
	ID    string
	Owner string
}
