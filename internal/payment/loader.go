package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// LoadState is the lifecycle of the hosted checkout script
type LoadState int

const (
	StateUninitialized LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// LoadFunc fetches the checkout script
type LoadFunc func(ctx context.Context) ([]byte, error)

type loadAttempt struct {
	done chan struct{}
	ok   bool
}

// ScriptLoader loads the gateway's client script at most once at a time.
// Concurrent callers join the in-flight attempt. A failed load is retried by
// the next caller.
type ScriptLoader struct {
	load LoadFunc

	mu      sync.Mutex
	state   LoadState
	attempt *loadAttempt
	script  []byte
	lastErr error
}

// NewScriptLoader creates a loader in the uninitialized state
func NewScriptLoader(load LoadFunc) *ScriptLoader {
	return &ScriptLoader{load: load}
}

// HTTPScriptSource returns a LoadFunc that downloads url with client
func HTTPScriptSource(client *http.Client, url string) LoadFunc {
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch checkout script: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("checkout script returned status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read checkout script: %w", err)
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("checkout script is empty")
		}
		return body, nil
	}
}

// Initialize makes sure the script is loaded. It never returns an error:
// callers check the boolean before using the gateway.
func (l *ScriptLoader) Initialize(ctx context.Context) bool {
	l.mu.Lock()
	switch l.state {
	case StateReady:
		l.mu.Unlock()
		return true
	case StateLoading:
		attempt := l.attempt
		l.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.ok
		case <-ctx.Done():
			return false
		}
	}

	attempt := &loadAttempt{done: make(chan struct{})}
	l.attempt = attempt
	l.state = StateLoading
	l.mu.Unlock()

	// the load outlives any single caller so joined waiters are not cut short
	script, err := l.load(context.WithoutCancel(ctx))

	l.mu.Lock()
	if err != nil {
		l.state = StateFailed
		l.lastErr = err
	} else {
		l.state = StateReady
		l.script = script
		l.lastErr = nil
	}
	attempt.ok = err == nil
	l.mu.Unlock()
	close(attempt.done)

	return attempt.ok
}

// State reports the current lifecycle state
func (l *ScriptLoader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Script returns the loaded script once ready
func (l *ScriptLoader) Script() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.script, l.state == StateReady
}

// LastError returns the error of the most recent failed load
func (l *ScriptLoader) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}
