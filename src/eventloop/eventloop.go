package eventloop

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"selection-translate/src/input"
	"selection-translate/src/session"
	"selection-translate/src/singleinstance"
	"selection-translate/src/worker"
)

// Runner performs one translation cycle for a trigger.
type Runner interface {
	Run(ctx context.Context, trigger input.Trigger) (session.Result, bool)
}

// Display receives rendered results.
type Display interface {
	Show(text string)
}

type Options struct {
	// Server, when set, is started by Run and its SHOW requests call OnShowPanel.
	Server      singleinstance.Server
	OnShowPanel func()
	// TriggerBuffer bounds triggers waiting for the loop. Defaults to 8.
	TriggerBuffer int
}

// Loop is the single-threaded coordinator between input triggers, the worker
// pool, the overlay and the resident endpoint.
type Loop struct {
	runner  Runner
	pool    *worker.Pool
	display Display
	opts    Options

	triggers chan input.Trigger
	results  chan session.Result
}

func New(runner Runner, pool *worker.Pool, display Display, opts Options) *Loop {
	if opts.TriggerBuffer <= 0 {
		opts.TriggerBuffer = 8
	}
	return &Loop{
		runner:   runner,
		pool:     pool,
		display:  display,
		opts:     opts,
		triggers: make(chan input.Trigger, opts.TriggerBuffer),
		results:  make(chan session.Result, 4),
	}
}

// Post queues a trigger without blocking. It is safe to call from the input
// hook goroutine; returns false if the trigger was dropped.
func (l *Loop) Post(tr input.Trigger) bool {
	select {
	case l.triggers <- tr:
		return true
	default:
		zap.S().Warnf("eventloop: trigger queue full, dropping %s trigger", tr)
		return false
	}
}

// Run processes triggers, results and resident requests until ctx is
// cancelled. It closes the pool on return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()

	var reqCh chan singleinstance.Conn
	if srv := l.opts.Server; srv != nil {
		if err := srv.Start(ctx); err != nil {
			zap.S().Warnf("eventloop: resident endpoint unavailable: %v", err)
		} else {
			zap.S().Infof("eventloop: resident listening on 127.0.0.1:%d", srv.Port())
			accepted := make(chan singleinstance.Conn, 4)
			reqCh = accepted
			// Deferred before srv.Close so it runs after it: Close unblocks
			// Next, the accept loop closes accepted, and leftovers are closed.
			defer func() {
				for conn := range accepted {
					_ = conn.Close()
				}
			}()
			defer srv.Close()
			// Accept loop in background to avoid blocking result handling
			go func() {
				defer close(accepted)
				for {
					conn, err := srv.Next(ctx)
					if err != nil {
						return
					}
					select {
					case accepted <- conn:
					case <-ctx.Done():
						_ = conn.Close()
						return
					}
				}
			}()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tr := <-l.triggers:
			l.handleTrigger(ctx, tr)
		case res := <-l.results:
			l.handleResult(res)
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(conn)
		}
	}
}

func (l *Loop) handleTrigger(ctx context.Context, tr input.Trigger) {
	submitted := l.pool.Submit(ctx, func(jobCtx context.Context) {
		res, ok := l.runner.Run(jobCtx, tr)
		if !ok {
			return
		}
		select {
		case l.results <- res:
		case <-jobCtx.Done():
		}
	})
	if !submitted {
		zap.S().Warnf("eventloop: worker queue full, dropping %s trigger", tr)
	}
}

func (l *Loop) handleResult(res session.Result) {
	zap.S().Debugf("eventloop: showing result for %s", res.Event.ID)
	l.display.Show(res.Display())
}

func (l *Loop) handleConn(conn singleinstance.Conn) {
	defer conn.Close()
	switch conn.Command() {
	case singleinstance.CommandShow:
		if l.opts.OnShowPanel != nil {
			l.opts.OnShowPanel()
		}
		if err := conn.RespondOK(); err != nil {
			zap.S().Warnf("eventloop: failed to answer resident request: %v", err)
		}
	default:
		_ = conn.RespondError(fmt.Sprintf("unsupported command %q", conn.Command()))
	}
}
