// Package store holds the actor that owns all persistent state. It answers
// broker commands and never lets a raw storage error reach the caller.
package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"notes-service/internal/broker"
	"notes-service/internal/command"
	"notes-service/internal/domain"
	"notes-service/internal/repository"
)

const unknownDetail = "Unknown error occurred"

// Actor serves every command kind against the user and note repositories.
// Handlers may run concurrently; the database serializes conflicting writes.
type Actor struct {
	users  repository.UserRepository
	notes  repository.NoteRepository
	logger *logrus.Logger
}

func NewActor(users repository.UserRepository, notes repository.NoteRepository, logger *logrus.Logger) *Actor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Actor{users: users, notes: notes, logger: logger}
}

// Init prepares the underlying collections.
func (a *Actor) Init(ctx context.Context) error {
	if err := a.users.Init(ctx); err != nil {
		return err
	}
	return a.notes.Init(ctx)
}

// Register binds one handler per command kind on b.
func (a *Actor) Register(b *broker.Broker) {
	b.Register(command.CreateUser, a.createUser)
	b.Register(command.GetUser, a.getUser)
	b.Register(command.CreateNote, a.createNote)
	b.Register(command.GetNote, a.getNote)
	b.Register(command.ListNotes, a.listNotes)
	b.Register(command.ListSharedNotes, a.listSharedNotes)
	b.Register(command.UpdateNote, a.updateNote)
	b.Register(command.DeleteNote, a.deleteNote)
}

func (a *Actor) createUser(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.CreateUserPayload)
	if !ok {
		a.badPayload(msg)
		return
	}

	// check
	_, err := a.users.GetByUsername(ctx, p.Username)
	switch {
	case err == nil:
		msg.Fail(domain.Conflict("User already exists"))
		return
	case !errors.Is(err, repository.ErrNotFound):
		msg.Fail(a.storageFailure(msg, err))
		return
	}

	// act; the unique index catches a concurrent registration of the same name
	user := &domain.User{Username: p.Username, Password: p.Password, Role: p.Role}
	if err := a.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			msg.Fail(domain.Conflict("User already exists"))
			return
		}
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	msg.Reply(user)
}

func (a *Actor) getUser(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.GetUserPayload)
	if !ok {
		a.badPayload(msg)
		return
	}

	var (
		user *domain.User
		err  error
	)
	switch {
	case p.ID != "":
		user, err = a.users.GetByID(ctx, p.ID)
	case p.Username != "":
		user, err = a.users.GetByUsername(ctx, p.Username)
	default:
		msg.Fail(domain.Validation("User query requires an id or a username"))
		return
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			msg.Fail(domain.NotFound("User not found"))
			return
		}
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	msg.Reply(user)
}

func (a *Actor) createNote(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.CreateNotePayload)
	if !ok {
		a.badPayload(msg)
		return
	}

	_, err := a.notes.GetByNameOwner(ctx, p.Name, p.Owner)
	switch {
	case err == nil:
		msg.Fail(domain.Conflict("Note already exists"))
		return
	case !errors.Is(err, repository.ErrNotFound):
		msg.Fail(a.storageFailure(msg, err))
		return
	}

	note := &domain.Note{Name: p.Name, Owner: p.Owner, Data: p.Data}
	if err := a.notes.Insert(ctx, note); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			msg.Fail(domain.Conflict("Note already exists"))
			return
		}
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	msg.Reply(note)
}

func (a *Actor) getNote(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.GetNotePayload)
	if !ok {
		a.badPayload(msg)
		return
	}

	note, err := a.notes.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			msg.Fail(domain.NotFound("Note not found"))
			return
		}
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	// Deliberately owner and contributors only: any other reader gets
	// NotFound, so a note's existence is never revealed to them.
	if !note.ReadableBy(p.Reader) {
		msg.Fail(domain.NotFound("Note not found"))
		return
	}
	msg.Reply(note)
}

func (a *Actor) listNotes(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.ListNotesPayload)
	if !ok {
		a.badPayload(msg)
		return
	}

	notes, err := a.notes.ListByOwner(ctx, p.Owner)
	if err != nil {
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	msg.Reply(notes)
}

func (a *Actor) listSharedNotes(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.ListSharedNotesPayload)
	if !ok {
		a.badPayload(msg)
		return
	}

	notes, err := a.notes.ListByContributor(ctx, p.Contributor)
	if err != nil {
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	msg.Reply(notes)
}

func (a *Actor) updateNote(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.UpdateNotePayload)
	if !ok {
		a.badPayload(msg)
		return
	}
	if p.Filter.ID == "" || p.Filter.Owner == "" {
		msg.Fail(domain.Validation("Update filter requires note id and owner"))
		return
	}
	if p.Patch.Empty() {
		msg.Fail(domain.Validation("Nothing to update"))
		return
	}

	matched, err := a.notes.Update(ctx, p.Filter, p.Patch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			msg.Fail(domain.Conflict("Note already exists"))
			return
		}
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	if !matched {
		msg.Fail(domain.NotFound("Note not found"))
		return
	}
	msg.Reply(struct{}{})
}

func (a *Actor) deleteNote(ctx context.Context, msg *broker.Message) {
	p, ok := msg.Body.(command.DeleteNotePayload)
	if !ok {
		a.badPayload(msg)
		return
	}
	if p.Filter.ID == "" || p.Filter.Owner == "" {
		msg.Fail(domain.Validation("Delete filter requires note id and owner"))
		return
	}

	removed, err := a.notes.Delete(ctx, p.Filter)
	if err != nil {
		msg.Fail(a.storageFailure(msg, err))
		return
	}
	if removed < 1 {
		msg.Fail(domain.NotFound("Note not found"))
		return
	}
	msg.Reply(struct{}{})
}

func (a *Actor) storageFailure(msg *broker.Message, err error) error {
	a.logger.WithFields(logrus.Fields{
		"kind":  msg.Kind,
		"error": err,
	}).Error("storage operation failed")
	return domain.Unknown(unknownDetail, err)
}

func (a *Actor) badPayload(msg *broker.Message) {
	a.logger.WithField("kind", msg.Kind).Errorf("unexpected payload %T", msg.Body)
	msg.Fail(domain.Unknown(unknownDetail, errors.New("unexpected payload")))
}
