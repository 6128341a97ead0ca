package lss

import (
	"context"

	"github.com/aace/lssbroker/internal/executor"
	"github.com/aace/lssbroker/internal/transport"
)

// Broker is the facade wiring the subscription store, handler registry,
// request dispatcher, and publish pipeline together, and installs the
// /subscribe and /unsubscribe built-ins. Socket binding itself lives
// outside this package (see cmd/lss-broker and internal/udsserver) — the
// broker exposes its Dispatcher for a UDS server to drive.
type Broker struct {
	registry   *HandlerRegistry
	store      *SubscriptionStore
	dispatcher *RequestDispatcher
	pipeline   *PublishPipeline
}

// New wires a Broker over store, delivering through tr, executing
// inbound requests on handlerPool and outbound deliveries on
// publishPool.
func New(store *SubscriptionStore, tr transport.Transport, handlerPool, publishPool *executor.Pool) *Broker {
	registry := NewHandlerRegistry()
	pipeline := NewPublishPipeline(store, tr, publishPool)
	dispatcher := NewRequestDispatcher(registry, handlerPool)

	b := &Broker{
		registry:   registry,
		store:      store,
		dispatcher: dispatcher,
		pipeline:   pipeline,
	}
	b.installBuiltins()
	return b
}

func (b *Broker) installBuiltins() {
	bi := &builtins{store: b.store, pipeline: b.pipeline}
	b.registry.Register(SubscribePath, bi.subscribe)
	b.registry.Register(UnsubscribePath, bi.unsubscribe)
}

// Start loads persisted subscriptions. Call once before serving requests.
func (b *Broker) Start(ctx context.Context) {
	b.store.Load(ctx)
}

// Dispatcher returns the request dispatcher a UDS server drives inbound
// requests through.
func (b *Broker) Dispatcher() *RequestDispatcher {
	return b.dispatcher
}

// RegisterHandler installs fn for path, overwriting any existing
// registration.
func (b *Broker) RegisterHandler(path string, fn RequestHandler) {
	b.registry.Register(path, fn)
}

// RegisterPublishHandler ensures id's topic exists and overwrites any
// non-nil hook supplied.
func (b *Broker) RegisterPublishHandler(id string, subscribeHook SubscribeHook, requestHook RequestHook, responseHook ResponseHook) {
	b.store.RegisterPublishHandler(id, subscribeHook, requestHook, responseHook)
}

// PublishMessage fans out doc to id's current subscribers. Returns false
// if id names no registered topic.
func (b *Broker) PublishMessage(id string, doc Document) bool {
	return b.pipeline.Publish(id, doc)
}
