// Package command defines the closed set of requests the gateway can send
// to the store actor, and the payload carried by each of them.
package command

import (
	"fmt"

	"notes-service/internal/domain"
)

// Kind identifies a command. The set is fixed at compile time.
type Kind uint8

const (
	CreateUser Kind = iota + 1
	GetUser
	CreateNote
	GetNote
	ListNotes
	ListSharedNotes
	UpdateNote
	DeleteNote
)

var kindNames = map[Kind]string{
	CreateUser:      "users.insert",
	GetUser:         "users.get",
	CreateNote:      "notes.insert",
	GetNote:         "notes.get",
	ListNotes:       "notes.list",
	ListSharedNotes: "notes.shared",
	UpdateNote:      "notes.update",
	DeleteNote:      "notes.delete",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every command kind a complete store must handle.
func Kinds() []Kind {
	return []Kind{
		CreateUser,
		GetUser,
		CreateNote,
		GetNote,
		ListNotes,
		ListSharedNotes,
		UpdateNote,
		DeleteNote,
	}
}

// CreateUserPayload registers a new account. Password is stored as supplied.
type CreateUserPayload struct {
	Username string
	Password string
	Role     string
}

// GetUserPayload looks up one account. Exactly one field should be set.
type GetUserPayload struct {
	ID       string
	Username string
}

type CreateNotePayload struct {
	Name  string
	Owner string
	Data  *string
}

// GetNotePayload fetches a note readable by Reader.
type GetNotePayload struct {
	ID     string
	Reader string
}

type ListNotesPayload struct {
	Owner string
}

type ListSharedNotesPayload struct {
	Contributor string
}

type UpdateNotePayload struct {
	Filter domain.NoteFilter
	Patch  domain.NotePatch
}

type DeleteNotePayload struct {
	Filter domain.NoteFilter
}
