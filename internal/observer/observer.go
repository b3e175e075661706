// Package observer implements a thread-safe subscriber list with opaque
// subscription tokens.
package observer

import (
	"sync"

	"github.com/mistbt/mist/internal/logger"
)

// Token identifies a subscription. Tokens are never reused.
type Token uint64

// Observable notifies subscribers of events of type E. Thread safety is
// unconditional. The zero value is not usable, call New.
type Observable[E any] struct {
	log logger.Logger

	m    sync.Mutex
	next Token
	subs map[Token]func(E)
}

// New returns a new Observable.
func New[E any](log logger.Logger) *Observable[E] {
	return &Observable[E]{
		log:  log,
		subs: make(map[Token]func(E)),
	}
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (o *Observable[E]) Subscribe(fn func(E)) Token {
	o.m.Lock()
	defer o.m.Unlock()
	o.next++
	t := o.next
	o.subs[t] = fn
	return t
}

// Unsubscribe removes the subscription identified by t. Returns false if the
// token is unknown.
func (o *Observable[E]) Unsubscribe(t Token) bool {
	o.m.Lock()
	defer o.m.Unlock()
	_, ok := o.subs[t]
	delete(o.subs, t)
	return ok
}

// Len returns the number of subscribers.
func (o *Observable[E]) Len() int {
	o.m.Lock()
	defer o.m.Unlock()
	return len(o.subs)
}

// Notify calls every subscriber with e. The subscriber snapshot is taken
// under the lock, callbacks run without it so they may subscribe or
// unsubscribe freely. A panicking subscriber is logged and skipped.
func (o *Observable[E]) Notify(e E) {
	o.m.Lock()
	fns := make([]func(E), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.m.Unlock()
	for _, fn := range fns {
		o.call(fn, e)
	}
}

func (o *Observable[E]) call(fn func(E), e E) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("subscriber panicked: %v", r)
		}
	}()
	fn(e)
}
