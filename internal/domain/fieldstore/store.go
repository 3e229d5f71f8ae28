// Package fieldstore holds the per-field upload state of a session: the
// accepted file and the single status message of every (step, field) pair.
package fieldstore

import (
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/felixgeelhaar/stepcheck/internal/domain/upload"
)

// Key addresses one field binding. The same field name in two steps is two
// distinct keys.
type Key struct {
	Step  int
	Field catalog.FieldName
}

// StatusKind is the category of the one message a field shows.
type StatusKind int

// Status kinds.
const (
	StatusNone StatusKind = iota
	StatusError
	StatusSuccess
	StatusValidationFailure
)

var statusNames = [...]string{"none", "error", "success", "validation_failure"}

// String returns the status kind name.
func (k StatusKind) String() string {
	if k < 0 || int(k) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Status is the message currently shown for a field. Writing a status
// replaces the previous one, whatever its kind.
type Status struct {
	Kind    StatusKind  `json:"kind"`
	Message string      `json:"message,omitempty"`
	Reason  upload.Kind `json:"reason,omitempty"`
	// Remote marks a success that came from the verification service rather
	// than from local acceptance.
	Remote bool `json:"remote,omitempty"`
}

// Entry is the state of one field binding.
type Entry struct {
	File   *upload.File
	Status Status
}

// Snapshot is an immutable view of the store. Never modify its entries.
type Snapshot struct {
	Version uint64
	entries map[Key]Entry
}

// Get returns the entry for key. Missing keys have no file and StatusNone.
func (s *Snapshot) Get(key Key) Entry {
	return s.entries[key]
}

// Len returns the number of keys that have ever been written.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Store is safe for concurrent use. Reads never block; writes are serialized
// and each publishes a new snapshot.
type Store struct {
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
	observer func(*Snapshot)
}

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{entries: map[Key]Entry{}})
	return s
}

// OnPublish registers fn to be called after every write, with the write lock
// held. fn must not write to the store.
func (s *Store) OnPublish(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Snapshot returns the latest published state.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// File returns the accepted file for key, or nil.
func (s *Store) File(key Key) *upload.File {
	return s.Snapshot().Get(key).File
}

// Status returns the current status for key.
func (s *Store) Status(key Key) Status {
	return s.Snapshot().Get(key).Status
}

// Accept binds file to key and records a success message.
func (s *Store) Accept(key Key, file *upload.File, message string) {
	s.update(key, func(e *Entry) {
		e.File = file
		e.Status = Status{Kind: StatusSuccess, Message: message}
	})
}

// Reject records an error and keeps any previously accepted file.
func (s *Store) Reject(key Key, reason upload.Kind, message string) {
	s.SetStatus(key, Status{Kind: StatusError, Message: message, Reason: reason})
}

// Clear resets the status of key to StatusNone.
func (s *Store) Clear(key Key) {
	s.SetStatus(key, Status{})
}

// SetStatus replaces the status of key.
func (s *Store) SetStatus(key Key, status Status) {
	s.update(key, func(e *Entry) {
		e.Status = status
	})
}

func (s *Store) update(key Key, mutate func(*Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	next := &Snapshot{
		Version: prev.Version + 1,
		entries: make(map[Key]Entry, len(prev.entries)+1),
	}
	for k, v := range prev.entries {
		next.entries[k] = v
	}
	entry := next.entries[key]
	mutate(&entry)
	next.entries[key] = entry

	s.current.Store(next)
	if s.observer != nil {
		s.observer(next)
	}
}
