package lss

import (
	"log/slog"
	"sync"
)

// Document is the broker's JSON representation: a decoded object, or nil
// for an absent body.
type Document map[string]any

// RequestHandler handles one inbound request. It reads req (nil if the
// request carried no body) and writes into resp. A false return maps to
// an HTTP 500 at the dispatcher.
type RequestHandler func(req, resp Document) bool

// HandlerRegistry holds the path → RequestHandler table. It is guarded by
// handlerMutex, held only long enough to copy out a handler handle —
// handlers themselves always run outside the lock.
type HandlerRegistry struct {
	handlerMutex sync.RWMutex
	handlers     map[string]RequestHandler
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]RequestHandler)}
}

// Register installs fn for path, overwriting and logging any prior
// registration on the same path.
func (r *HandlerRegistry) Register(path string, fn RequestHandler) {
	r.handlerMutex.Lock()
	defer r.handlerMutex.Unlock()

	if _, exists := r.handlers[path]; exists {
		slog.Warn("request handler replaced", "component", "lss", "path", path)
	}
	r.handlers[path] = fn
}

// Lookup returns the handler registered for path, if any.
func (r *HandlerRegistry) Lookup(path string) (RequestHandler, bool) {
	r.handlerMutex.RLock()
	defer r.handlerMutex.RUnlock()

	fn, ok := r.handlers[path]
	return fn, ok
}
