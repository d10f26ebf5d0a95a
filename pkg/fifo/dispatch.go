package fifo

import (
	"errors"
	"regexp"

	"github.com/pipebus/pipebus/pkg/types"
)

// ErrQuit is the cooperative stop sentinel. A handler returns it to end the
// worker's run loop normally; Run absorbs it and returns nil.
var ErrQuit = errors.New("fifo: quit")

// Handler processes one message received from the pipe. The origin argument
// is the logical pipe name the worker was constructed with, not the resolved
// filesystem path. Returning ErrQuit stops the worker loop; any other
// non-nil error aborts it.
type Handler func(msg, origin string) error

// Quit is a ready-made handler that stops the worker loop. Subscribe it
// directly to a shutdown message:
//
//	w.Subscribe(fifo.Quit, "quit")
func Quit(msg, origin string) error {
	return ErrQuit
}

// subscription is one entry of the dispatch table. The two variants carry
// their own matching payload.
type subscription interface {
	matches(msg string) bool
	handler() Handler
}

// exactSub matches iff the message equals the pattern byte for byte
type exactSub struct {
	pattern string
	fn      Handler
}

func (s exactSub) matches(msg string) bool { return msg == s.pattern }
func (s exactSub) handler() Handler        { return s.fn }

// regexpSub matches iff the compiled expression matches a prefix of the
// message; the expression is anchored at compile time
type regexpSub struct {
	re *regexp.Regexp
	fn Handler
}

func (s regexpSub) matches(msg string) bool { return s.re.MatchString(msg) }
func (s regexpSub) handler() Handler        { return s.fn }

// Dispatcher resolves incoming messages to handlers. Subscriptions are
// ordered and append-only; the first matching subscription wins, with the
// wildcard as the fallback when nothing matches.
//
// Dispatcher is not safe for concurrent use. The worker registers all
// subscriptions before entering its loop and dispatches from a single
// control thread, so no locking is needed.
type Dispatcher struct {
	origin   string
	subs     []subscription
	wildcard Handler
}

// NewDispatcher creates a dispatcher that reports origin as the second
// handler argument.
func NewDispatcher(origin string) *Dispatcher {
	return &Dispatcher{origin: origin}
}

// Subscribe registers a handler for messages exactly equal to msg. The empty
// string is a valid pattern and matches the idle tick, which arrives once
// per poll with no data; subscribe it first since it is the most common.
func (d *Dispatcher) Subscribe(fn Handler, msg string) error {
	if fn == nil {
		return types.NewError(types.ErrCodeInvalid, "handler cannot be nil")
	}
	d.subs = append(d.subs, exactSub{pattern: msg, fn: fn})
	return nil
}

// SubscribeRegex registers a handler for messages whose prefix matches the
// expression. The expression is anchored at the start of the message, so a
// pattern "st" matches "status" but not "post".
func (d *Dispatcher) SubscribeRegex(fn Handler, pattern string) error {
	if fn == nil {
		return types.NewError(types.ErrCodeInvalid, "handler cannot be nil")
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return types.WrapError(types.ErrCodeInvalidArgument, "invalid pattern: "+pattern, err)
	}
	d.subs = append(d.subs, regexpSub{re: re, fn: fn})
	return nil
}

// SubscribeWildcard registers the fallback handler invoked when no
// subscription matches. Only the first registration takes effect; later
// calls are ignored.
func (d *Dispatcher) SubscribeWildcard(fn Handler) {
	if fn == nil || d.wildcard != nil {
		return
	}
	d.wildcard = fn
}

// Len returns the number of registered subscriptions, excluding the
// wildcard.
func (d *Dispatcher) Len() int {
	return len(d.subs)
}

// Dispatch resolves msg to at most one handler and invokes it. It reports
// whether any handler ran, and the handler's error verbatim (including
// ErrQuit).
func (d *Dispatcher) Dispatch(msg string) (bool, error) {
	for _, sub := range d.subs {
		if sub.matches(msg) {
			return true, sub.handler()(msg, d.origin)
		}
	}
	if d.wildcard != nil {
		return true, d.wildcard(msg, d.origin)
	}
	return false, nil
}
