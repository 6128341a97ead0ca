package lss

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aace/lssbroker/internal/common/metrics"
	"github.com/aace/lssbroker/internal/executor"
	"github.com/aace/lssbroker/internal/transport"
)

// PublishPipeline fans out publish() calls to a topic's subscribers on
// the publish executor, applying the delivery outcome table: retry on
// timeout, eviction on terminal transport/HTTP failure.
type PublishPipeline struct {
	store     *SubscriptionStore
	transport transport.Transport
	pool      *executor.Pool
}

// NewPublishPipeline returns a pipeline delivering through transport on
// pool, evicting/persisting subscribers via store.
func NewPublishPipeline(store *SubscriptionStore, tr transport.Transport, pool *executor.Pool) *PublishPipeline {
	return &PublishPipeline{store: store, transport: tr, pool: pool}
}

// Publish dispatches one delivery task per current subscriber of id and
// returns immediately. Returns false if id names no registered topic.
func (p *PublishPipeline) Publish(id string, message Document) bool {
	if !p.store.TopicExists(id) {
		return false
	}

	subscribers := p.store.SubscribersOf(id)
	hooks := p.store.HooksFor(id)

	for _, sub := range subscribers {
		p.submitDelivery(id, sub, message, hooks)
	}
	return true
}

func (p *PublishPipeline) submitDelivery(id string, sub Subscriber, message Document, hooks Hooks) {
	if !p.pool.Submit(func() {
		p.deliver(id, sub, message, hooks)
	}) {
		slog.Warn("publish pool rejected delivery, dropping", "component", "lss", "topic", id, "endpoint", sub.Endpoint, "path", sub.Path)
	}
}

// deliver performs one POST attempt to sub and applies the outcome
// table. It owns its transport handle exclusively for the call's
// duration and releases it on every exit path.
func (p *PublishPipeline) deliver(id string, sub Subscriber, message Document, hooks Hooks) {
	deliveryID := uuid.NewString()

	payload, ok := p.resolvePayload(message, hooks.Request)
	if !ok {
		metrics.PublishDeliveriesTotal.WithLabelValues(id, "hook_error").Inc()
		return
	}

	resp, kind, err := p.transport.Post(context.Background(), sub.Endpoint, sub.Path, payload)

	switch {
	case kind == transport.KindConnect:
		p.evict(id, sub, err)

	case kind == transport.KindTimeout:
		slog.Warn("delivery timed out, retrying", "component", "lss", "topic", id, "endpoint", sub.Endpoint, "path", sub.Path, "delivery_id", deliveryID)
		metrics.PublishRetryTotal.WithLabelValues(id).Inc()
		metrics.PublishDeliveriesTotal.WithLabelValues(id, "retry").Inc()
		p.submitDelivery(id, sub, message, hooks)

	case err != nil:
		slog.Error("delivery failed", "component", "lss", "topic", id, "endpoint", sub.Endpoint, "error", err)
		metrics.PublishDeliveriesTotal.WithLabelValues(id, "error").Inc()

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		p.consumeResponse(id, sub, resp.Body, hooks.Response)
		metrics.PublishDeliveriesTotal.WithLabelValues(id, "success").Inc()

	default:
		slog.Info("delivery evicted on non-2xx status", "component", "lss", "topic", id, "endpoint", sub.Endpoint, "status", resp.StatusCode)
		p.evict(id, sub, nil)
	}
}

// resolvePayload implements the payload-determination order: caller-
// supplied message, else requestHook output, else no body.
func (p *PublishPipeline) resolvePayload(message Document, hook RequestHook) ([]byte, bool) {
	if message != nil {
		data, err := json.Marshal(message)
		if err != nil {
			slog.Error("publish payload marshal failed", "component", "lss", "error", err)
			return nil, false
		}
		return data, true
	}

	if hook == nil {
		return nil, true
	}

	doc := Document{}
	if !hook(doc) {
		return nil, false
	}
	data, err := json.Marshal(doc)
	if err != nil {
		slog.Error("request hook payload marshal failed", "component", "lss", "error", err)
		return nil, false
	}
	return data, true
}

func (p *PublishPipeline) consumeResponse(id string, sub Subscriber, body []byte, hook ResponseHook) {
	if len(body) == 0 || hook == nil {
		return
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		slog.Warn("response hook body not JSON", "component", "lss", "topic", id, "endpoint", sub.Endpoint, "error", err)
		return
	}
	if !hook(doc) {
		slog.Warn("response hook returned false", "component", "lss", "topic", id, "endpoint", sub.Endpoint)
	}
}

func (p *PublishPipeline) evict(id string, sub Subscriber, cause error) {
	if p.store.Remove(id, sub) {
		metrics.PublishDeliveriesTotal.WithLabelValues(id, "evicted").Inc()
		slog.Info("subscriber evicted", "component", "lss", "topic", id, "endpoint", sub.Endpoint, "path", sub.Path, "cause", cause)
	}
}
