package devsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/user"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAuth struct {
	session *user.AuthSession
	err     error
}

func (f *fakeAuth) Session(ctx context.Context) (*user.AuthSession, error) {
	return f.session, f.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []user.AlivePayload
	err      error
}

func (n *recordingNotifier) NotifyAlive(ctx context.Context, s *user.AuthSession, p user.AlivePayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payloads)
}

var signedIn = &fakeAuth{session: &user.AuthSession{SessionSecret: "secret", Username: "jane"}}

func fixedURL(url string) Option {
	return WithURLResolver(func(context.Context, string, core.Runtime) (string, error) {
		return url, nil
	})
}

func newSession() *Session {
	return NewSession("/project", core.AppDescriptor{Name: "App", Slug: "app"}, core.RuntimeNative)
}

func TestStartNotifiesSynchronously(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(signedIn, n, fixedURL("exp://127.0.0.1:19000"), WithInterval(time.Hour))
	sess := newSession()

	h.Start(context.Background(), sess, false)
	defer h.Stop(sess)

	require.Equal(t, 1, n.count())
	assert.Equal(t, user.AlivePayload{
		Source:   "desktop",
		Exp:      core.AppDescriptor{Name: "App", Slug: "app"},
		URL:      "exp://127.0.0.1:19000",
		Platform: core.RuntimeNative,
	}, n.payloads[0])
	assert.True(t, sess.Active())
}

func TestStartRepeatsEveryInterval(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(signedIn, n, fixedURL("exp://x"), WithInterval(5*time.Millisecond))
	sess := newSession()

	h.Start(context.Background(), sess, false)
	require.Eventually(t, func() bool { return n.count() >= 3 }, 2*time.Second, time.Millisecond)

	h.Stop(sess)
	stopped := n.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.count())
	assert.False(t, sess.Active())
}

func TestStartWithoutAuthIsSilent(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(&fakeAuth{}, n, fixedURL("exp://x"), WithInterval(time.Millisecond))
	sess := newSession()

	h.Start(context.Background(), sess, false)

	assert.Zero(t, n.count())
	assert.False(t, sess.Active())
}

func TestStartOfflineIsNoop(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(signedIn, n, fixedURL("exp://x"), WithOffline(true))
	sess := newSession()

	h.Start(context.Background(), sess, true)

	assert.Zero(t, n.count())
	assert.False(t, sess.Active())
}

func TestStopThenStartWithoutForce(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(signedIn, n, fixedURL("exp://x"), WithInterval(time.Hour))
	sess := newSession()

	h.Stop(sess)
	h.Start(context.Background(), sess, false)
	assert.Zero(t, n.count())
	assert.False(t, sess.KeepUpdating())

	h.Start(context.Background(), sess, true)
	defer h.Stop(sess)
	assert.Equal(t, 1, n.count())
	assert.True(t, sess.KeepUpdating())
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(signedIn, n, fixedURL("exp://x"), WithInterval(time.Hour))
	sess := newSession()

	h.Start(context.Background(), sess, false)
	h.Start(context.Background(), sess, true)
	defer h.Stop(sess)

	assert.Equal(t, 1, n.count())
}

func TestConcurrentStartNotifiesOnce(t *testing.T) {
	n := &recordingNotifier{}
	slowURL := WithURLResolver(func(context.Context, string, core.Runtime) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "exp://x", nil
	})
	h := NewHeartbeat(signedIn, n, slowURL, WithInterval(time.Hour))
	sess := newSession()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Start(context.Background(), sess, false)
		}()
	}
	wg.Wait()
	defer h.Stop(sess)

	assert.Equal(t, 1, n.count())
	assert.True(t, sess.Active())
}

func TestErrorsAreLoggedAndLoopContinues(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	n := &recordingNotifier{err: errors.New("503")}
	calls := 0
	var mu sync.Mutex
	resolve := WithURLResolver(func(context.Context, string, core.Runtime) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return "", core.NewCommandError(core.EDevServerDown, "Webpack dev server is not running for project at: /project")
		}
		return "http://127.0.0.1:19006", nil
	})
	h := NewHeartbeat(signedIn, n, resolve, WithInterval(5*time.Millisecond), WithLogger(zap.New(obsCore)))
	sess := NewSession("/project", core.AppDescriptor{Name: "App"}, core.RuntimeWeb)

	h.Start(context.Background(), sess, false)
	assert.Zero(t, n.count())

	require.Eventually(t, func() bool { return n.count() >= 2 }, 2*time.Second, time.Millisecond)
	h.Stop(sess)

	entries := logs.FilterMessage("Error updating dev session").All()
	require.GreaterOrEqual(t, len(entries), 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "web", entries[0].ContextMap()["runtime"])
}

func TestContextCancelEndsTask(t *testing.T) {
	n := &recordingNotifier{}
	h := NewHeartbeat(signedIn, n, fixedURL("exp://x"), WithInterval(time.Millisecond))
	sess := newSession()

	ctx, cancel := context.WithCancel(context.Background())
	h.Start(ctx, sess, false)
	cancel()

	require.Eventually(t, func() bool { return !sess.Active() }, 2*time.Second, time.Millisecond)
	h.Stop(sess)
}

func TestSignOutEndsTask(t *testing.T) {
	auth := &switchableAuth{session: signedIn.session}
	n := &recordingNotifier{}
	h := NewHeartbeat(auth, n, fixedURL("exp://x"), WithInterval(time.Millisecond))
	sess := newSession()

	h.Start(context.Background(), sess, false)
	auth.signOut()

	require.Eventually(t, func() bool { return !sess.Active() }, 2*time.Second, time.Millisecond)
	h.Stop(sess)
}

type switchableAuth struct {
	mu      sync.Mutex
	session *user.AuthSession
}

func (a *switchableAuth) Session(context.Context) (*user.AuthSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session, nil
}

func (a *switchableAuth) signOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
}
