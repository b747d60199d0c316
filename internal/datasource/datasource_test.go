package datasource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"cleanse/internal/config"
)

func TestNewFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.csv")
	if err := os.WriteFile(path, []byte("x\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src, err := New(config.Source{Kind: "file", File: config.SourceFile{Path: path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if b, _ := io.ReadAll(rc); string(b) != "x\n" {
		t.Fatalf("content = %q", b)
	}
}

func TestNewHTTPSource(t *testing.T) {
	src, err := New(config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: "http://example.test/d.csv"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if src == nil {
		t.Fatalf("nil source")
	}
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := New(config.Source{Kind: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
