package whttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type countingTransport struct {
	calls int32
	err   error
}

func (t *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&t.calls, 1)
	return nil, t.err
}

func TestSendRetriesTimeoutsFourTimes(t *testing.T) {
	tr := &countingTransport{err: timeoutError{}}
	c, err := NewClient(Options{Transport: tr})
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Send(context.Background(), &WHTTPReq{URL: "http://example.invalid/x"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil response, got %+v", res)
	}
	if got := atomic.LoadInt32(&tr.calls); got != MaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", MaxRetries+1, got)
	}
}

func TestSendDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	tr := &countingTransport{err: boom}
	c, err := NewClient(Options{Transport: tr})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Send(context.Background(), &WHTTPReq{URL: "http://example.invalid/x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the original error to propagate, got %v", err)
	}
	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestSendDoesNotRetryStatusCodes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"ErrorStatus":"SystemDisabled"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{})
	res, err := c.Send(context.Background(), &WHTTPReq{URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.StatusCode)
	}
	if hits != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestSendRetriesServerTimeouts(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := NewClient(Options{Timeout: 50 * time.Millisecond})
	_, err := c.Send(context.Background(), &WHTTPReq{URL: srv.URL})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != MaxRetries+1 {
		t.Fatalf("expected %d hits, got %d", MaxRetries+1, got)
	}
}

func TestSendConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, _ := NewClient(Options{})
	_, err := c.Send(context.Background(), &WHTTPReq{URL: addr})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSendHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{})
	res, err := c.Send(context.Background(), &WHTTPReq{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "X-API-Key", Value: "k"}},
		Body:    "a=b",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != http.StatusOK || res.BodyString != "ok" {
		t.Fatalf("unexpected response: %d %q", res.StatusCode, res.BodyString)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", timeoutError{}, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("parse error"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("%s: IsTransient = %v, want %v", tt.name, got, tt.want)
		}
	}
}
