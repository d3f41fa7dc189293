package linkmeta_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/services"
	"quill/internal/services/linkmeta"
)

func TestFetchPrefersOpenGraph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "quill-test/1.0" {
			t.Fatalf("user agent = %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
			<title>Plain Title</title>
			<meta property="og:title" content="OG Title">
			<meta property="og:description" content="OG description.">
			<meta property="og:site_name" content="Example Site">
			<meta name="description" content="Plain description.">
		</head><body></body></html>`))
	}))
	defer server.Close()

	client := linkmeta.NewClient(linkmeta.Config{UserAgent: "quill-test/1.0"}, nil)
	meta, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if meta.Title != "OG Title" || meta.Description != "OG description." || meta.SiteName != "Example Site" {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestFetchFallsBackToTitleAndDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<title>  Recipe Collection  </title>
			<meta name="description" content="A list of recipes.">
		</head></html>`))
	}))
	defer server.Close()

	client := linkmeta.NewClient(linkmeta.Config{}, nil)
	meta, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if meta.Title != "Recipe Collection" || meta.Description != "A list of recipes." {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestFetchNonHTMLYieldsBareMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	client := linkmeta.NewClient(linkmeta.Config{}, nil)
	meta, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if meta.Title != "" || meta.URL != server.URL {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestFetchNotFoundIsValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := linkmeta.NewClient(linkmeta.Config{}, nil)
	_, err := client.Fetch(context.Background(), server.URL)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := linkmeta.NewClient(linkmeta.Config{}, nil)
	_, err := client.Fetch(context.Background(), server.URL)
	if !services.Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestFetchUnreachableHostIsTransient(t *testing.T) {
	client := linkmeta.NewClient(linkmeta.Config{}, nil)
	_, err := client.Fetch(context.Background(), "http://127.0.0.1:1/page")
	if !services.Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
