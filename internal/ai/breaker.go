package ai

import (
	"context"
	"sync"
	"time"
)

type BreakerConfig struct {
	Timeout          time.Duration // hard timeout per call
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half_open"
)

// ProtectedAsker wraps an Asker with a per-call timeout and a circuit
// breaker. While open it fails fast with ErrUnavailable.
type ProtectedAsker struct {
	inner Asker
	cfg   BreakerConfig
	mu    sync.Mutex

	state breakerState

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
	now                 func() time.Time
}

func NewProtectedAsker(inner Asker, cfg BreakerConfig) *ProtectedAsker {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedAsker{
		inner: inner,
		cfg:   cfg,
		state: stateClosed,
		now:   time.Now,
	}
}

func (p *ProtectedAsker) Ask(ctx context.Context, req AskRequest) (string, error) {
	// fail-fast gate
	if !p.allowRequest() {
		return "", ErrUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	answer, err := p.inner.Ask(callCtx, req)

	// the caller going away says nothing about the provider
	if err != nil && ctx.Err() != nil {
		p.release()
		return "", err
	}

	p.afterRequest(err)
	return answer, err
}

func (p *ProtectedAsker) allowRequest() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateOpen:
		// cooldown has passed? move to half open
		if p.now().Sub(p.openedAt) >= p.cfg.Cooldown {
			p.state = stateHalfOpen
			p.halfOpenInFlight = 1
			return true
		}
		return false
	case stateHalfOpen:
		if p.halfOpenInFlight >= p.cfg.HalfOpenMaxCalls {
			return false
		}
		p.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (p *ProtectedAsker) release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == stateHalfOpen && p.halfOpenInFlight > 0 {
		p.halfOpenInFlight--
	}
}

func (p *ProtectedAsker) afterRequest(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// half-open call just finished
	if p.state == stateHalfOpen && p.halfOpenInFlight > 0 {
		p.halfOpenInFlight--
	}

	if err == nil {
		p.consecutiveFailures = 0
		p.state = stateClosed
		return
	}

	p.consecutiveFailures++

	// if half-open failed, reopen immediately
	if p.state == stateHalfOpen {
		p.state = stateOpen
		p.openedAt = p.now()
		return
	}

	if p.consecutiveFailures >= p.cfg.FailureThreshold {
		p.state = stateOpen
		p.openedAt = p.now()
	}
}
