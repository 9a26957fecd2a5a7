package store

import (
	"sync"

	"go.uber.org/zap"
)

// Channels is the durable per-chat list of external notification URLs.
// Ordering is preserved; an empty list is never stored.
type Channels struct {
	mu   sync.Mutex
	file *jsonFile
	urls map[int64][]string
}

// OpenChannels loads (or initializes) the channels collection under dir.
func OpenChannels(dir string, log *zap.Logger) (*Channels, error) {
	file, err := newJSONFile(dir, "channels", log)
	if err != nil {
		return nil, err
	}
	s := &Channels{file: file, urls: make(map[int64][]string)}
	s.file.load(&s.urls)
	return s, nil
}

// List returns the chat's channel URLs in registration order.
func (s *Channels) List(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.urls[chatID]))
	copy(out, s.urls[chatID])
	return out
}

// Count returns how many channels the chat has registered.
func (s *Channels) Count(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls[chatID])
}

// Append adds a URL to the chat's list.
func (s *Channels) Append(chatID int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[chatID] = append(s.urls[chatID], url)
	s.file.dump(s.urls)
}

// Remove deletes a URL from the chat's list. Removing the last URL drops the
// chat's entry entirely. Reports whether the URL was present.
func (s *Channels) Remove(chatID int64, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.urls[chatID]
	for i, u := range list {
		if u != url {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		if len(list) == 0 {
			delete(s.urls, chatID)
		} else {
			s.urls[chatID] = list
		}
		s.file.dump(s.urls)
		return true
	}
	return false
}
