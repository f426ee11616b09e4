package protocol

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if table.Len() == 0 {
		t.Fatal("embedded table is empty")
	}

	label, ok := table.Lookup(786)
	if !ok {
		t.Fatal("Lookup(786) not found in embedded table")
	}
	if label != "1.21.70" {
		t.Fatalf("Lookup(786) = %q, want 1.21.70", label)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.json")
	content := `[{"version": 1, "minecraftVersion": "0.0.1"}, {"version": 2, "minecraftVersion": "0.0.2"}]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
}

func TestLabelFallback(t *testing.T) {
	table := &Table{labels: map[int]string{594: "1.20.0"}}

	tests := []struct {
		id   int
		want string
	}{
		{594, "1.20.0"},
		{99999, "99999"},
		{0, "0"},
		{-1, "-1"},
	}

	for _, tt := range tests {
		if got := table.Label(tt.id); got != tt.want {
			t.Errorf("Label(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("Load() on missing file must fail")
	}
}
