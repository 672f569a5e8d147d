// Package user reads the signed-in user's session from the local state
// file and sends authenticated notifications on their behalf.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/axeldelafosse/expo-cli/client"
	"github.com/axeldelafosse/expo-cli/internal/core"
)

// StateFile is the name of the user state file inside the state
// directory.
const StateFile = "state.json"

// sessionHeader carries the session secret on authenticated requests.
const sessionHeader = "expo-session"

// AuthSession identifies a signed-in user.
type AuthSession struct {
	SessionSecret string `json:"sessionSecret"`
	Username      string `json:"username,omitempty"`
}

// AlivePayload is sent for every heartbeat of a development session.
type AlivePayload struct {
	Source   string             `json:"source"`
	Exp      core.AppDescriptor `json:"exp"`
	URL      string             `json:"url"`
	Platform core.Runtime       `json:"platform"`
}

// Poster sends JSON requests. *client.Client satisfies it.
type Poster interface {
	PostJSON(ctx context.Context, url string, payload any, v any, header http.Header) error
}

// Manager reads the user state file and talks to the API as that user.
type Manager struct {
	stateDir string
	poster   Poster
	urls     client.URLBuilder
}

// Option configures a Manager.
type Option func(*Manager)

// WithURLs sets the API URL builder.
func WithURLs(urls client.URLBuilder) Option {
	return func(m *Manager) {
		m.urls = urls
	}
}

// NewManager returns a Manager reading {stateDir}/state.json. A nil
// poster uses client.DefaultClient.
func NewManager(stateDir string, poster Poster, opts ...Option) *Manager {
	if poster == nil {
		poster = client.DefaultClient()
	}
	m := &Manager{
		stateDir: stateDir,
		poster:   poster,
		urls:     client.APIURLs(client.DefaultAPIURL),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StatePath returns the location of the state file.
func (m *Manager) StatePath() string {
	return filepath.Join(m.stateDir, StateFile)
}

// Session returns the current auth session, or nil when nobody is signed
// in. The file is read on every call so sign-ins and sign-outs made by
// other processes are picked up.
func (m *Manager) Session(ctx context.Context) (*AuthSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(m.StatePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading user state: %w", err)
	}

	var state struct {
		Auth *AuthSession `json:"auth"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", m.StatePath(), err)
	}
	if state.Auth == nil || state.Auth.SessionSecret == "" {
		return nil, nil
	}
	return state.Auth, nil
}

// NotifyAlive reports a running development session for the user
// identified by session.
func (m *Manager) NotifyAlive(ctx context.Context, session *AuthSession, payload AlivePayload) error {
	if session == nil {
		return core.NewCommandError(core.ENotAuthenticated, "not signed in")
	}
	header := http.Header{}
	header.Set(sessionHeader, session.SessionSecret)
	if err := m.poster.PostJSON(ctx, m.urls.NotifyAlive(), payload, nil, header); err != nil {
		return fmt.Errorf("notifying dev session: %w", err)
	}
	return nil
}
