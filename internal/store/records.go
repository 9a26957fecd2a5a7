package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Konano/IngressSojournerReminder/internal/domain"
)

// Records is the durable reminder-record collection, keyed by chat id. All
// mutations are serialized by a single mutex and flushed before the mutating
// call returns, so the scheduler and command handlers can race freely: the
// last applied mutation wins and nothing is half-written.
type Records struct {
	mu   sync.Mutex
	file *jsonFile
	recs map[int64]domain.Record
}

// OpenRecords loads (or initializes) the records collection under dir.
func OpenRecords(dir string, log *zap.Logger) (*Records, error) {
	file, err := newJSONFile(dir, "records", log)
	if err != nil {
		return nil, err
	}
	s := &Records{file: file, recs: make(map[int64]domain.Record)}
	s.file.load(&s.recs)
	return s, nil
}

// Get returns the record for a chat, if any.
func (s *Records) Get(chatID int64) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[chatID]
	return r, ok
}

// Put creates or replaces the record for a chat.
func (s *Records) Put(chatID int64, r domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[chatID] = r
	s.file.dump(s.recs)
}

// Delete removes the record for a chat. Reports whether it existed.
func (s *Records) Delete(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[chatID]; !ok {
		return false
	}
	delete(s.recs, chatID)
	s.file.dump(s.recs)
	return true
}

// Mutate applies fn to the chat's record under the store lock and persists
// the result. If the record is gone (a concurrent /cancel won) fn is not
// called and the record is not resurrected. fn returning false deletes the
// record instead of writing it back.
func (s *Records) Mutate(chatID int64, fn func(domain.Record) (domain.Record, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[chatID]
	if !ok {
		return false
	}
	next, keep := fn(r)
	if keep {
		s.recs[chatID] = next
	} else {
		delete(s.recs, chatID)
	}
	s.file.dump(s.recs)
	return true
}

// Snapshot returns a copy of all records for tick iteration. Mutations made
// while the scheduler walks the copy go through Mutate and are never lost.
func (s *Records) Snapshot() map[int64]domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]domain.Record, len(s.recs))
	for k, v := range s.recs {
		out[k] = v
	}
	return out
}
