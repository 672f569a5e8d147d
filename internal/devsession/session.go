// Package devsession keeps the API informed that a development session
// is alive while a project is being served.
package devsession

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/user"
)

// DefaultInterval is the time between two notifications.
const DefaultInterval = 20 * time.Second

// source identifies this tool in notifications.
const source = "desktop"

// Session is one served project. It owns its keep-updating flag and its
// periodic notification task.
type Session struct {
	ProjectRoot string
	Exp         core.AppDescriptor
	Runtime     core.Runtime

	mu           sync.Mutex
	keepUpdating bool
	starting     bool
	task         *periodicTask
}

// NewSession returns a session that will notify once started.
func NewSession(projectRoot string, exp core.AppDescriptor, runtime core.Runtime) *Session {
	return &Session{
		ProjectRoot:  projectRoot,
		Exp:          exp,
		Runtime:      runtime,
		keepUpdating: true,
	}
}

// KeepUpdating reports whether notifications are enabled.
func (s *Session) KeepUpdating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keepUpdating
}

// Active reports whether a periodic notification task is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil && s.task.running()
}

// AuthSource returns the signed-in user, or nil when nobody is.
type AuthSource interface {
	Session(ctx context.Context) (*user.AuthSession, error)
}

// Notifier sends a liveness notification.
type Notifier interface {
	NotifyAlive(ctx context.Context, session *user.AuthSession, payload user.AlivePayload) error
}

// Heartbeat drives the notifications of sessions.
type Heartbeat struct {
	auth     AuthSource
	notifier Notifier
	interval time.Duration
	offline  bool
	resolve  func(ctx context.Context, projectRoot string, runtime core.Runtime) (string, error)
	logger   *zap.Logger
}

// Option configures a Heartbeat.
type Option func(*Heartbeat)

// WithInterval sets the time between notifications.
func WithInterval(d time.Duration) Option {
	return func(h *Heartbeat) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithOffline disables all notifications.
func WithOffline(offline bool) Option {
	return func(h *Heartbeat) {
		h.offline = offline
	}
}

// WithLogger sets the logger failures are reported to at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(h *Heartbeat) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithURLResolver replaces the runtime URL lookup. The default is
// RuntimeURL.
func WithURLResolver(fn func(ctx context.Context, projectRoot string, runtime core.Runtime) (string, error)) Option {
	return func(h *Heartbeat) {
		h.resolve = fn
	}
}

// NewHeartbeat creates a Heartbeat. *user.Manager satisfies both auth and
// notifier.
func NewHeartbeat(auth AuthSource, notifier Notifier, opts ...Option) *Heartbeat {
	h := &Heartbeat{
		auth:     auth,
		notifier: notifier,
		interval: DefaultInterval,
		resolve:  RuntimeURL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start notifies once, synchronously, then keeps notifying every
// interval until Stop is called or ctx is done. forceUpdate re-enables a
// session that was stopped. Start does nothing when offline, when the
// session is stopped, or when it is already running. Nobody being
// signed in ends the session's notifications without error.
func (h *Heartbeat) Start(ctx context.Context, sess *Session, forceUpdate bool) {
	sess.mu.Lock()
	if forceUpdate {
		sess.keepUpdating = true
	}
	if h.offline || !sess.keepUpdating || sess.starting || (sess.task != nil && sess.task.running()) {
		sess.mu.Unlock()
		return
	}
	sess.starting = true
	sess.mu.Unlock()

	more := h.tick(ctx, sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.starting = false
	// Stop may have run during the first tick.
	if !more || !sess.keepUpdating {
		return
	}
	sess.task = startPeriodic(ctx, h.interval, func(ctx context.Context) bool {
		return h.tick(ctx, sess)
	})
}

// Stop disables the session's notifications and waits for a running
// notification to finish.
func (h *Heartbeat) Stop(sess *Session) {
	sess.mu.Lock()
	sess.keepUpdating = false
	task := sess.task
	sess.task = nil
	sess.mu.Unlock()

	if task != nil {
		task.Stop()
	}
}

// tick sends one notification. It returns false when no further ticks
// should run.
func (h *Heartbeat) tick(ctx context.Context, sess *Session) bool {
	if !sess.KeepUpdating() {
		return false
	}

	log := h.logger.With(
		zap.String("projectRoot", sess.ProjectRoot),
		zap.String("runtime", string(sess.Runtime)),
	)

	auth, err := h.auth.Session(ctx)
	if err != nil {
		log.Debug("Error updating dev session", zap.Error(err))
		return true
	}
	if auth == nil {
		return false
	}

	url, err := h.resolve(ctx, sess.ProjectRoot, sess.Runtime)
	if err != nil {
		log.Debug("Error updating dev session", zap.Error(err))
		return true
	}

	err = h.notifier.NotifyAlive(ctx, auth, user.AlivePayload{
		Source:   source,
		Exp:      sess.Exp,
		URL:      url,
		Platform: sess.Runtime,
	})
	if err != nil {
		log.Debug("Error updating dev session", zap.Error(err))
	}
	return true
}
