package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hoopmetrics/enrich/internal/retry"
	"github.com/hoopmetrics/enrich/pkg/models"
)

func testClient(timeout time.Duration) *Client {
	cfg := retry.DefaultConfig()
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 100 * time.Millisecond
	return New(Options{
		Timeout:   timeout,
		UserAgent: "enrich-test/1.0",
		Retry:     cfg,
	})
}

func TestFetchText_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "enrich-test/1.0" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept-Language") == "" {
			t.Error("expected Accept-Language header")
		}
		w.Write([]byte("<html><body>profile</body></html>"))
	}))
	defer server.Close()

	c := testClient(5 * time.Second)
	resp, err := c.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Body == "" {
		t.Error("expected a body")
	}
}

func TestFetchText_RetriesOn429(t *testing.T) {
	var calls int32
	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := testClient(5 * time.Second)
	resp, err := c.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchText failed after retries: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}

	// Backoff doubles, so gaps between attempts must grow.
	if len(stamps) == 3 {
		first := stamps[1].Sub(stamps[0])
		second := stamps[2].Sub(stamps[1])
		if second <= first {
			t.Errorf("expected increasing backoff, got %v then %v", first, second)
		}
	}
}

func TestFetchText_NoRetryOn404(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(5 * time.Second)
	_, err := c.FetchText(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Errorf("expected HTTPError with 404, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 404)", got)
	}
}

func TestFetchText_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 1
	c := New(Options{Timeout: 50 * time.Millisecond, UserAgent: "t", Retry: cfg})

	_, err := c.FetchText(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

type recordingLimiter struct {
	urls []string
	err  error
}

func (l *recordingLimiter) Wait(_ context.Context, urlStr string) error {
	l.urls = append(l.urls, urlStr)
	return l.err
}

func TestFetchText_WaitsOnLimiterPerAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	limiter := &recordingLimiter{}
	cfg := retry.DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	c := New(Options{Timeout: time.Second, UserAgent: "t", Retry: cfg, Limiter: limiter})

	if _, err := c.FetchText(context.Background(), server.URL); err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	// One wait per attempt, so the retry also paid the rate limit.
	if len(limiter.urls) != 2 {
		t.Fatalf("limiter saw %d waits, want 2", len(limiter.urls))
	}
	if limiter.urls[0] != server.URL {
		t.Errorf("limiter url = %q, want %q", limiter.urls[0], server.URL)
	}
}

func TestFetchText_LimiterErrorStopsRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	limiter := &recordingLimiter{err: context.Canceled}
	c := testClient(time.Second)
	c.limiter = limiter

	if _, err := c.FetchText(context.Background(), server.URL); err == nil {
		t.Fatal("expected error from aborted rate limit wait")
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("server saw %d calls, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.Status
	}{
		{"nil", nil, models.StatusOK},
		{"404", &HTTPError{StatusCode: 404}, models.StatusNotFound},
		{"429", &HTTPError{StatusCode: 429}, models.StatusRateLimited},
		{"403", &HTTPError{StatusCode: 403}, models.StatusBlocked},
		{"401", &HTTPError{StatusCode: 401}, models.StatusLoginWall},
		{"500", &HTTPError{StatusCode: 500}, models.StatusFetchFailed},
		{"transport", errors.New("dial tcp: no such host"), models.StatusFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Wrapped(t *testing.T) {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.InitialBackoff = time.Millisecond

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := New(Options{Timeout: time.Second, UserAgent: "t", Retry: cfg})
	_, err := c.FetchText(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	// The retry wrapper adds context; classification must survive wrapping.
	if got := Classify(err); got != models.StatusRateLimited {
		t.Errorf("Classify(wrapped 429) = %v, want rate_limited", got)
	}
}

func TestTruncate(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	if got := Truncate(string(long)); len(got) != 200 {
		t.Errorf("len = %d, want 200", len(got))
	}
	if got := Truncate("short"); got != "short" {
		t.Errorf("got %q", got)
	}
}
