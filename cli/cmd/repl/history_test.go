package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_AddAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"${CC}", modeEval},
		{"list", modeCtrl},
		{"${CC}", modeEval}, // repeat of the last eval entry, moved to the end
		{"${CC}", modeEval}, // immediate repeat, ignored
		{"  ", modeEval},    // blank, ignored
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q): %v", e.Line, err)
		}
	}

	want := []HistoryEntry{{"list", modeCtrl}, {"${CC}", modeEval}}
	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}

	if got := string(data); got != "C:list\nE:${CC}\n" {
		t.Errorf("history file = %q", got)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff(want, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_MemoryOnly(t *testing.T) {
	h := NewHistory("")

	if err := h.Add("${A}", modeEval); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
}

func TestHistory_EntryBounds(t *testing.T) {
	h := NewHistory("")

	if _, err := h.Entry(0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Entry(0) on empty history: got %v, want ErrOutOfBounds", err)
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"E:${A}", HistoryEntry{"${A}", modeEval}},
		{"C:pop", HistoryEntry{"pop", modeCtrl}},
		{"${legacy}", HistoryEntry{"${legacy}", modeEval}},
	}

	for _, tt := range tests {
		if got := decodeEntry(tt.line); got != tt.want {
			t.Errorf("decodeEntry(%q) = %+v, want %+v", tt.line, got, tt.want)
		}

		if got := decodeEntry(tt.want.encode()); got != tt.want {
			t.Errorf("decodeEntry(encode(%+v)) = %+v", tt.want, got)
		}
	}
}
