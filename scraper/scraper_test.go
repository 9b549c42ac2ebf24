package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
			<a href="/data/streaming_prices.csv">prices</a>
			<a href="data/streaming_titles.csv">titles</a>
			<a href="/data/streaming_titles.csv">again</a>
			<a href="/about">about</a>
		</body></html>`)
	})
	mux.HandleFunc("/empty.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/about">about</a></body></html>`)
	})
	mux.HandleFunc("/data/streaming_titles.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "platform,type\nNetflix,SHOW\n")
	})
	mux.HandleFunc("/data/streaming_prices.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "platform,year,price\nNetflix,2020,13.99\n")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDiscoverCSVLinks(t *testing.T) {
	server := newTestServer(t)
	s := NewScraper()

	links, err := s.DiscoverCSVLinks(context.Background(), server.URL+"/index.html")
	if err != nil {
		t.Fatalf("Failed to discover links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %v", links)
	}
	if links[0] != server.URL+"/data/streaming_prices.csv" || links[1] != server.URL+"/data/streaming_titles.csv" {
		t.Errorf("Unexpected links: %v", links)
	}

	if _, err := s.DiscoverCSVLinks(context.Background(), server.URL+"/empty.html"); !errors.Is(err, ErrNoCSVLink) {
		t.Errorf("Expected ErrNoCSVLink, got %v", err)
	}
}

func TestFetchDataset(t *testing.T) {
	server := newTestServer(t)
	s := NewScraper()
	ctx := context.Background()

	data, err := s.FetchDataset(ctx, server.URL+"/index.html", "titles")
	if err != nil {
		t.Fatalf("Failed to fetch dataset: %v", err)
	}
	if !strings.HasPrefix(string(data), "platform,type") {
		t.Errorf("Expected titles CSV, got %q", data)
	}

	data, err = s.FetchDataset(ctx, server.URL+"/index.html", "")
	if err != nil {
		t.Fatalf("Failed to fetch dataset: %v", err)
	}
	if !strings.HasPrefix(string(data), "platform,year,price") {
		t.Errorf("Expected first CSV link, got %q", data)
	}

	data, err = s.FetchDataset(ctx, server.URL+"/data/streaming_prices.csv", "titles")
	if err != nil {
		t.Fatalf("Failed to fetch direct CSV: %v", err)
	}
	if !strings.Contains(string(data), "13.99") {
		t.Errorf("Unexpected body: %q", data)
	}
}

func TestFetchErrors(t *testing.T) {
	server := newTestServer(t)
	s := NewScraper()

	if _, err := s.Fetch(context.Background(), server.URL+"/missing.csv"); err == nil {
		t.Error("Expected error for 404")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx, server.URL+"/data/streaming_titles.csv"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.csv")
	if err := os.WriteFile(path, []byte("platform,type\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	data, err := NewScraper().FetchDataset(context.Background(), path, "titles")
	if err != nil {
		t.Fatalf("Failed to read local file: %v", err)
	}
	if string(data) != "platform,type\n" {
		t.Errorf("Unexpected content: %q", data)
	}

	if _, err := NewScraper().Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestIsRemote(t *testing.T) {
	if !IsRemote("https://example.com/a.csv") || IsRemote("/tmp/a.csv") || IsRemote("data/a.csv") {
		t.Error("Unexpected IsRemote result")
	}
}
