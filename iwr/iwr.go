// Package iwr implements the Init-Write-Read lifecycle shared by every
// mutable entity in fusion.
//
// An entity starts in Init, where any field may be assigned. DoneInit moves it
// to Write, where only non-readonly fields may change. DoneWrite moves it to
// Read, which is terminal:
//
//	INIT --DoneInit--> WRITE --DoneWrite--> READ
//	INIT ---------------DoneWrite---------> READ
//
// Transitions never revisit a prior state. Each Lifecycle owns its own mutex;
// state reads, transitions and guarded mutations are serialized per entity.
package iwr

import (
	"errors"
	"sync"
)

// State is a lifecycle state.
type State uint8

const (
	Init State = iota
	Write
	Read
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case Write:
		return "WRITE"
	case Read:
		return "READ"
	}
	return "UNKNOWN"
}

var (
	// ErrAlreadyInit is returned by DoneInit outside of Init.
	ErrAlreadyInit = errors.New("iwr: already done-init")
	// ErrNotWritable is returned when a transition or mutation is attempted in Read.
	ErrNotWritable = errors.New("iwr: not writable")
)

// Hook runs under the entity lock right before a transition to next.
// Returning an error aborts the transition and leaves the state unchanged.
// A hook must not call back into methods that take the same lock.
type Hook func(next State) error

// Entity is implemented by everything that carries a lifecycle.
type Entity interface {
	State() State
	DoneInit() error
	DoneWrite() error
}

// Cloner is an entity that can produce a copy of itself in a requested state.
type Cloner[T any] interface {
	Entity
	Clone(target State) (T, error)
}

// Lifecycle is the state machine embedded by entities. The zero value is in Init.
type Lifecycle struct {
	mu    sync.Mutex
	state State
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// DoneInit advances Init to Write.
func (l *Lifecycle) DoneInit(h Hook) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doneInit(h)
}

func (l *Lifecycle) doneInit(h Hook) error {
	if l.state != Init {
		return ErrAlreadyInit
	}
	if h != nil {
		if err := h(Write); err != nil {
			return err
		}
	}
	l.state = Write
	return nil
}

// DoneWrite advances Init or Write to Read.
func (l *Lifecycle) DoneWrite(h Hook) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doneWrite(h)
}

func (l *Lifecycle) doneWrite(h Hook) error {
	if l.state == Read {
		return ErrNotWritable
	}
	if h != nil {
		if err := h(Read); err != nil {
			return err
		}
	}
	l.state = Read
	return nil
}

// EnsureRead is DoneWrite that tolerates an entity already in Read.
func (l *Lifecycle) EnsureRead(h Hook) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Read {
		return nil
	}
	return l.doneWrite(h)
}

// Do runs fn under the entity lock with the current state.
func (l *Lifecycle) Do(fn func(State) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.state)
}

// Mutate runs fn under the entity lock unless the entity is in Read.
func (l *Lifecycle) Mutate(fn func(State) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Read {
		return ErrNotWritable
	}
	return fn(l.state)
}

// Restore sets up the lifecycle of a freshly copied entity. from is the state
// of the source entity and target the requested state of the copy:
//
//   - Read runs DoneWrite (and so the hook) on the copy.
//   - Write runs DoneInit when copying from Init, otherwise forces Write.
//   - Init forces Init, keeping the copied values for further editing.
//
// Restore must only be used on a lifecycle nobody else has seen yet.
func (l *Lifecycle) Restore(from, target State, h Hook) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch target {
	case Init:
		l.state = Init
		return nil
	case Write:
		if from == Init {
			l.state = Init
			return l.doneInit(h)
		}
		l.state = Write
		return nil
	default:
		if from == Read {
			from = Write
		}
		l.state = from
		return l.doneWrite(h)
	}
}

// CloneForRead returns e in Read. An entity already in Read is returned as is.
func CloneForRead[T Cloner[T]](e T) (T, error) { return e.Clone(Read) }

// CloneForWrite returns a copy of e in Write.
func CloneForWrite[T Cloner[T]](e T) (T, error) { return e.Clone(Write) }

// CloneForInit returns a copy of e in Init with the values preserved.
func CloneForInit[T Cloner[T]](e T) (T, error) { return e.Clone(Init) }
