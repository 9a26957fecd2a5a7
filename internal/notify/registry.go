package notify

import (
	"strings"

	"github.com/Konano/IngressSojournerReminder/internal/store"
)

// MaxChannels is the per-chat limit on external notification channels.
const MaxChannels = 3

// Service describes one supported external notification service.
type Service struct {
	Name      string
	Protocols []string
	DocsURL   string
}

// Services lists the supported fan-out services. The protocols here are the
// shoutrrr URL schemes users register channels with.
var Services = []Service{
	{"Bark", []string{"bark"}, "https://containrrr.dev/shoutrrr/v0.8/services/bark/"},
	{"Discord", []string{"discord"}, "https://containrrr.dev/shoutrrr/v0.8/services/discord/"},
	{"Gotify", []string{"gotify"}, "https://containrrr.dev/shoutrrr/v0.8/services/gotify/"},
	{"Ntfy", []string{"ntfy"}, "https://containrrr.dev/shoutrrr/v0.8/services/ntfy/"},
	{"Pushover", []string{"pushover"}, "https://containrrr.dev/shoutrrr/v0.8/services/pushover/"},
	{"Slack", []string{"slack"}, "https://containrrr.dev/shoutrrr/v0.8/services/slack/"},
}

var allowedProtocols = func() map[string]bool {
	m := make(map[string]bool)
	for _, s := range Services {
		for _, p := range s.Protocols {
			m[p] = true
		}
	}
	return m
}()

// AddResult reports the outcome of a channel registration attempt.
type AddResult int

const (
	AddOK AddResult = iota
	AddLimitReached
	AddInvalidURL
)

// Registry manages per-chat external notification channels on top of the
// durable channel store.
type Registry struct {
	channels *store.Channels
}

// NewRegistry wraps the channel store.
func NewRegistry(channels *store.Channels) *Registry {
	return &Registry{channels: channels}
}

// List returns the chat's registered channel URLs.
func (r *Registry) List(chatID int64) []string {
	return r.channels.List(chatID)
}

// Add validates and registers a channel URL. Nothing is stored unless the
// URL passes validation and the chat is under the channel limit.
func (r *Registry) Add(chatID int64, url string) AddResult {
	if r.channels.Count(chatID) >= MaxChannels {
		return AddLimitReached
	}
	scheme, _, ok := strings.Cut(url, "://")
	if !ok || !allowedProtocols[scheme] {
		return AddInvalidURL
	}
	r.channels.Append(chatID, url)
	return AddOK
}

// Remove deletes a channel URL. Reports whether it was registered.
func (r *Registry) Remove(chatID int64, url string) bool {
	return r.channels.Remove(chatID, url)
}
