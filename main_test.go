package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/redoku/document"
	"github.com/ByLCY/redoku/fonts"
)

func testGenerator(t *testing.T) *document.Generator {
	t.Helper()
	gen, err := document.Open(document.BackendCanvas, []fonts.Source{fonts.BuiltinSource()},
		document.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return gen
}

func TestRunWritesPDFAndDebug(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(in, []byte("Hello world\n\nA second paragraph\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "out", "result.pdf")
	debug := filepath.Join(dir, "debug", "layout.json")

	if err := run(in, out, debug, testGenerator(t)); err != nil {
		t.Fatalf("run error: %v", err)
	}

	pdfBytes, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}

	raw, err := os.ReadFile(debug)
	if err != nil {
		t.Fatalf("read debug: %v", err)
	}
	var decoded struct {
		Pages []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("debug JSON invalid: %v", err)
	}
	if len(decoded.Pages) != 1 {
		t.Fatalf("expected 1 page in debug output, got %d", len(decoded.Pages))
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(in, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	err := run(in, filepath.Join(dir, "out.pdf"), "", testGenerator(t))
	if !errors.Is(err, document.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	if err := run(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "out.pdf"), "", testGenerator(t)); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("REDOKU_TEST_ENV", "")
	if got := envOr("REDOKU_TEST_ENV", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("REDOKU_TEST_ENV", "set")
	if got := envOr("REDOKU_TEST_ENV", "fallback"); got != "set" {
		t.Fatalf("got %q", got)
	}
}
