// Package lss implements the local pub/sub and request-dispatch broker:
// subscription bookkeeping, handler registration, inbound request routing,
// and outbound publish fan-out with retry/eviction.
package lss

// Subscriber is an immutable (endpoint, path) pair identifying a UDS peer
// and the URL path the broker POSTs to on it. Equality is component-wise.
type Subscriber struct {
	Endpoint string
	Path     string
}

// Equal reports whether s and other name the same endpoint and path.
func (s Subscriber) Equal(other Subscriber) bool {
	return s.Endpoint == other.Endpoint && s.Path == other.Path
}
