package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selection-translate/src/input"
	"selection-translate/src/session"
	"selection-translate/src/singleinstance"
	"selection-translate/src/worker"
)

type scriptedRunner struct {
	mu    sync.Mutex
	calls []input.Trigger
	out   func(input.Trigger) (session.Result, bool)
}

func (r *scriptedRunner) Run(_ context.Context, tr input.Trigger) (session.Result, bool) {
	r.mu.Lock()
	r.calls = append(r.calls, tr)
	r.mu.Unlock()
	return r.out(tr)
}

type recordingDisplay struct {
	shown chan string
}

func (d *recordingDisplay) Show(text string) { d.shown <- text }

func startLoop(t *testing.T, runner Runner, opts Options) (*Loop, *recordingDisplay, context.CancelFunc, <-chan error) {
	t.Helper()
	display := &recordingDisplay{shown: make(chan string, 8)}
	l := New(runner, worker.New(2, 4), display, opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return l, display, cancel, done
}

func TestTriggerResultReachesDisplay(t *testing.T) {
	runner := &scriptedRunner{out: func(tr input.Trigger) (session.Result, bool) {
		return session.Result{Original: "hello", Translated: "你好"}, true
	}}
	l, display, cancel, done := startLoop(t, runner, Options{})

	require.True(t, l.Post(input.TriggerGesture))
	select {
	case text := <-display.shown:
		assert.Equal(t, "Original: hello\n\nTranslation: 你好", text)
	case <-time.After(2 * time.Second):
		t.Fatal("result never displayed")
	}

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
}

func TestNoResultNothingShown(t *testing.T) {
	runner := &scriptedRunner{out: func(input.Trigger) (session.Result, bool) { return session.Result{}, false }}
	l, display, cancel, done := startLoop(t, runner, Options{})

	require.True(t, l.Post(input.TriggerHotkey))
	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.calls) == 1
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case text := <-display.shown:
		t.Fatalf("unexpected display %q", text)
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	<-done
}

func TestPostDropsWhenFull(t *testing.T) {
	l := New(&scriptedRunner{}, worker.New(1, 1), &recordingDisplay{}, Options{TriggerBuffer: 1})
	defer l.pool.Close()

	assert.True(t, l.Post(input.TriggerHotkey))
	assert.False(t, l.Post(input.TriggerHotkey), "loop not running, buffer full")
}

func TestShowRequestOpensPanel(t *testing.T) {
	t.Setenv("SELECTION_TRANSLATE_PORT_START", "49760")
	t.Setenv("SELECTION_TRANSLATE_PORT_END", "49770")

	shown := make(chan struct{}, 1)
	runner := &scriptedRunner{out: func(input.Trigger) (session.Result, bool) { return session.Result{}, false }}
	srv := singleinstance.NewServer()
	_, _, cancel, done := startLoop(t, runner, Options{
		Server:      srv,
		OnShowPanel: func() { shown <- struct{}{} },
	})
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return srv.Port() != 0 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancelSend := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelSend()
	delegated, err := singleinstance.NewClient().Send(ctx, singleinstance.CommandShow)
	require.NoError(t, err)
	assert.True(t, delegated)

	select {
	case <-shown:
	case <-time.After(2 * time.Second):
		t.Fatal("control panel was not shown")
	}
}

type countingConn struct{ srv *floodServer }

func (c *countingConn) Command() singleinstance.Command { return singleinstance.CommandShow }
func (c *countingConn) RespondOK() error                { return nil }
func (c *countingConn) RespondError(string) error       { return nil }
func (c *countingConn) Close() error {
	c.srv.mu.Lock()
	c.srv.closed++
	c.srv.mu.Unlock()
	return nil
}

// floodServer hands out a new request on every Next until ctx is done.
type floodServer struct {
	mu             sync.Mutex
	opened, closed int
}

func (s *floodServer) Start(context.Context) error { return nil }
func (s *floodServer) Port() int                   { return 1 }
func (s *floodServer) Close() error                { return nil }

func (s *floodServer) Next(ctx context.Context) (singleinstance.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &countingConn{srv: s}, nil
}

func (s *floodServer) counts() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

func TestShutdownClosesPendingRequests(t *testing.T) {
	srv := &floodServer{}
	blocked := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	runner := &scriptedRunner{out: func(input.Trigger) (session.Result, bool) { return session.Result{}, false }}
	_, _, cancel, done := startLoop(t, runner, Options{
		Server: srv,
		OnShowPanel: func() {
			once.Do(func() {
				close(blocked)
				<-unblock
			})
		},
	})

	<-blocked
	// One request in hand, the buffer full, and one more waiting to be queued.
	require.Eventually(t, func() bool {
		opened, _ := srv.counts()
		return opened >= 6
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	close(unblock)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	opened, closed := srv.counts()
	assert.Equal(t, opened, closed, "every accepted request is closed on shutdown")
}
