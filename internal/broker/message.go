package broker

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"notes-service/internal/command"
)

// Message is a command in flight. Only the first Reply or Fail counts.
type Message struct {
	Kind command.Kind
	Body any

	done   atomic.Bool
	out    chan<- Result
	logger *logrus.Entry
}

// Reply resolves the command successfully with body.
func (m *Message) Reply(body any) {
	m.resolve(Result{Body: body})
}

// Fail resolves the command with err.
func (m *Message) Fail(err error) {
	m.resolve(Result{Err: err})
}

func (m *Message) resolve(res Result) {
	if !m.done.CompareAndSwap(false, true) {
		m.logger.Warn("dropping second reply to command")
		return
	}
	// out has capacity one and only this send ever writes to it.
	m.out <- res
}

func (m *Message) answered() bool {
	return m.done.Load()
}
