package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aylabs/musicore/pkg/cache"
	"github.com/aylabs/musicore/pkg/errors"
)

func TestFetchScore(t *testing.T) {
	body := `{"title":"Prelude"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient(cache.NewNullCache())
	data, err := client.FetchScore(context.Background(), srv.URL+"/prelude.json")
	if err != nil {
		t.Fatalf("FetchScore() error: %v", err)
	}
	if string(data) != body {
		t.Errorf("FetchScore() = %q, want %q", data, body)
	}
}

func TestFetchScoreCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"title":"Cached"}`))
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(fc)

	for i := 0; i < 3; i++ {
		if _, err := client.FetchScore(context.Background(), srv.URL); err != nil {
			t.Fatalf("FetchScore() attempt %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1 (cache should absorb repeats)", got)
	}
}

func TestFetchScoreNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(nil).FetchScore(context.Background(), srv.URL)
	if !errors.Is(err, errors.ErrCodeScoreNotFound) {
		t.Errorf("FetchScore() error = %v, want SCORE_NOT_FOUND", err)
	}
}

func TestFetchScoreRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	data, err := NewClient(nil).FetchScore(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchScore() error after retry: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("FetchScore() = %q", data)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestFetchScoreRejectsScheme(t *testing.T) {
	for _, url := range []string{"ftp://example.com/score.json", "file:///etc/passwd", "not a url at all ://"} {
		if _, err := NewClient(nil).FetchScore(context.Background(), url); err == nil {
			t.Errorf("FetchScore(%q) should fail", url)
		}
	}
}
