package lss

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aace/lssbroker/internal/common/metrics"
	"github.com/aace/lssbroker/internal/executor"
)

// Request is the minimal inbound-request abstraction the dispatcher
// consumes. udsserver.Request implements this over a net/http request
// obtained from a UDS listener.
type Request interface {
	Method() string
	Path() string
	Body() []byte
	Respond(status int, body []byte)
}

// RequestDispatcher routes inbound requests to handlers registered in a
// HandlerRegistry, executing each handler on the handler executor pool.
type RequestDispatcher struct {
	registry *HandlerRegistry
	pool     *executor.Pool
}

// NewRequestDispatcher returns a dispatcher backed by registry, running
// handlers on pool.
func NewRequestDispatcher(registry *HandlerRegistry, pool *executor.Pool) *RequestDispatcher {
	return &RequestDispatcher{registry: registry, pool: pool}
}

// Dispatch parses req's body, resolves its handler, and submits handler
// execution to the handler executor. It never blocks on the handler
// itself.
func (d *RequestDispatcher) Dispatch(req Request) {
	var reqDoc Document
	if req.Method() == "POST" {
		if body := req.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &reqDoc); err != nil {
				d.respond(req, 400, nil)
				return
			}
		}
	}

	handler, ok := d.registry.Lookup(req.Path())
	if !ok {
		d.respond(req, 404, nil)
		return
	}

	if !d.pool.Submit(func() { d.run(req, handler, reqDoc) }) {
		slog.Warn("handler pool at capacity, rejecting request", "component", "lss", "path", req.Path())
		d.respond(req, 500, nil)
	}
}

func (d *RequestDispatcher) run(req Request, handler RequestHandler, reqDoc Document) {
	start := time.Now()
	correlationID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("request handler panicked", "component", "lss", "path", req.Path(), "correlation_id", correlationID, "panic", r)
		}
	}()

	respDoc := Document{}
	ok := handler(reqDoc, respDoc)

	var status int
	var body []byte
	switch {
	case !ok:
		status = 500
	case len(respDoc) > 0:
		data, err := json.Marshal(respDoc)
		if err != nil {
			slog.Error("request handler response marshal failed", "component", "lss", "path", req.Path(), "error", err)
			status = 500
		} else {
			status, body = 200, data
		}
	default:
		status = 204
	}

	d.respond(req, status, body)
	metrics.DispatchDuration.WithLabelValues(req.Path()).Observe(time.Since(start).Seconds())
}

func (d *RequestDispatcher) respond(req Request, status int, body []byte) {
	req.Respond(status, body)
	metrics.DispatchRequestsTotal.WithLabelValues(req.Path(), strconv.Itoa(status)).Inc()
}
