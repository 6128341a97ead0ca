package lss

// SubscribePath and UnsubscribePath name the two built-in routes the
// broker installs at configure time.
const (
	SubscribePath   = "/subscribe"
	UnsubscribePath = "/unsubscribe"
)

// builtins wires the /subscribe and /unsubscribe handlers to a store and
// pipeline. Both handlers are registered on the broker's HandlerRegistry.
type builtins struct {
	store    *SubscriptionStore
	pipeline *PublishPipeline
}

func stringField(doc Document, key string) (string, bool) {
	if doc == nil {
		return "", false
	}
	v, ok := doc[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// subscribe handles {id, endpoint, path}. The topic id must already be
// registered (some service called RegisterPublishHandler). On success it
// adds the subscriber, invokes subscribeHook to populate resp, and — if
// requestHook or responseHook is set — submits one priming delivery to
// the new subscriber.
func (b *builtins) subscribe(req, resp Document) bool {
	id, ok := stringField(req, "id")
	if !ok {
		return false
	}
	endpoint, ok := stringField(req, "endpoint")
	if !ok {
		return false
	}
	path, ok := stringField(req, "path")
	if !ok {
		return false
	}

	if !b.store.TopicExists(id) {
		return false
	}

	sub := Subscriber{Endpoint: endpoint, Path: path}
	b.store.Add(id, sub)

	hooks := b.store.HooksFor(id)
	if hooks.Subscribe != nil {
		hooks.Subscribe(nil, resp)
	}
	if hooks.Request != nil || hooks.Response != nil {
		b.pipeline.submitDelivery(id, sub, nil, hooks)
	}

	return true
}

// unsubscribe handles {id, endpoint, path}. id need not already be
// registered. No hook is invoked.
func (b *builtins) unsubscribe(req, resp Document) bool {
	id, ok := stringField(req, "id")
	if !ok {
		return false
	}
	endpoint, ok := stringField(req, "endpoint")
	if !ok {
		return false
	}
	path, ok := stringField(req, "path")
	if !ok {
		return false
	}

	b.store.Remove(id, Subscriber{Endpoint: endpoint, Path: path})
	return true
}
