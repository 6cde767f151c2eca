// Package token provides cancellation tokens for cooperative task
// cancellation. A Token wraps a context.Context and records why the
// token ended: an explicit cancel, a deadline, or a cancelled parent.
//
// Tokens form a one-directional tree: cancelling a parent cancels all
// of its children, never the reverse. Once cancelled, a token stays
// cancelled and its reason never changes.
package token

import (
	"context"
	"errors"
	"time"
)

// Reason describes why a token was cancelled.
type Reason int32

const (
	// ReasonNone means the token is still live.
	ReasonNone Reason = iota
	// ReasonTimeout means a deadline expired, on this token or on an
	// ancestor.
	ReasonTimeout
	// ReasonExplicit means Cancel was called, either on this token
	// or on one of its ancestors.
	ReasonExplicit
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTimeout:
		return "timeout"
	case ReasonExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Token carries a cancellation signal shared by every worker processing
// tasks under the same batch. Exactly one owner (the creator) is expected
// to call Cancel; observers use Done, IsCancelled, and Reason.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
	reason atomicReason
	parent *Token
}

// background is the shared never-cancelled token.
var background = &Token{ctx: context.Background()}

// Background returns a token that is never cancelled and carries no
// deadline. Cancel on it is a no-op.
func Background() *Token { return background }

// New creates a token. A nil parent means the token descends from the
// background token. A timeout greater than zero arms a deadline that
// auto-cancels the token with ReasonTimeout.
func New(parent *Token, timeout time.Duration) *Token {
	pctx := context.Background()
	if parent != nil {
		pctx = parent.ctx
	}

	t := &Token{parent: parent}
	if timeout > 0 {
		t.ctx, t.cancel = context.WithTimeout(pctx, timeout)
	} else {
		t.ctx, t.cancel = context.WithCancel(pctx)
	}
	return t
}

// Cancel cancels the token and every token derived from it. The first
// call records the reason; later calls are no-ops. A ReasonNone argument
// is normalized to ReasonExplicit.
func (t *Token) Cancel(reason Reason) {
	if t.cancel == nil {
		return
	}
	if reason == ReasonNone {
		reason = ReasonExplicit
	}
	// Store before cancelling so the reason is visible the moment Done
	// closes.
	t.reason.CompareAndSwap(ReasonNone, reason)
	t.cancel()
}

// IsCancelled reports whether the token has been cancelled, either
// directly, through a parent, or by its deadline.
func (t *Token) IsCancelled() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

// Reason returns why the token was cancelled, or ReasonNone while the
// token is still live. When cancellation arrived from outside (deadline
// or ancestor), the reason is derived from the context error and the
// parent chain.
func (t *Token) Reason() Reason {
	if r := t.reason.Load(); r != ReasonNone {
		return r
	}
	err := t.ctx.Err()
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case t.parent != nil && t.parent.Reason() != ReasonNone:
		return t.parent.Reason()
	default:
		return ReasonExplicit
	}
}

// Done returns a channel closed when the token is cancelled. Task bodies
// select on it to abort early. For the background token the channel is
// nil and blocks forever.
func (t *Token) Done() <-chan struct{} { return t.ctx.Done() }

// Err mirrors context.Context.Err: nil while live, context.Canceled or
// context.DeadlineExceeded after cancellation.
func (t *Token) Err() error { return t.ctx.Err() }

// Context exposes the underlying context so token-aware task bodies can
// pass it to downstream clients.
func (t *Token) Context() context.Context { return t.ctx }
