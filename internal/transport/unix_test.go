package transport

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func serveUnix(t *testing.T, handler http.HandlerFunc) (endpoint string, close func()) {
	t.Helper()

	dir := t.TempDir()
	endpoint = filepath.Join(dir, "subscriber.sock")

	ln, err := net.Listen("unix", endpoint)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)

	return endpoint, func() { srv.Close() }
}

func TestUnixTransportPostSuccess(t *testing.T) {
	endpoint, stop := serveUnix(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cb" {
			t.Errorf("path = %s, want /cb", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})
	defer stop()

	tr := New(DefaultConfig())
	resp, kind, err := tr.Post(context.Background(), endpoint, "/cb", []byte(`{"n":42}`))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if kind != KindNone {
		t.Errorf("kind = %v, want KindNone", kind)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestUnixTransportPostNonexistentSocketEvicts(t *testing.T) {
	tr := New(DefaultConfig())
	_, kind, err := tr.Post(context.Background(), "/tmp/does-not-exist-lss.sock", "/cb", nil)
	if err == nil {
		t.Fatal("expected error for nonexistent socket")
	}
	if kind != KindConnect {
		t.Errorf("kind = %v, want KindConnect", kind)
	}
}

func TestUnixTransportPostTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	endpoint, stop := serveUnix(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer stop()

	tr := New(Config{ConnectTimeout: time.Second, TotalTimeout: 20 * time.Millisecond})
	_, kind, err := tr.Post(context.Background(), endpoint, "/cb", nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind != KindTimeout {
		t.Errorf("kind = %v, want KindTimeout", kind)
	}
}
