// Package protocol maps numeric network protocol ids to human-readable version labels.
package protocol

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/realmtools/realmd/assets"
	"github.com/rs/zerolog/log"
)

// entry mirrors one element of the protocol table file.
type entry struct {
	Version          int    `json:"version"`
	MinecraftVersion string `json:"minecraftVersion"`
}

// Table is an immutable protocol id to version label mapping, loaded
// once at startup and never mutated.
type Table struct {
	labels map[int]string
}

// Load reads the protocol table from the given JSON file. An empty path
// loads the table embedded in the binary.
func Load(path string) (*Table, error) {
	var (
		data []byte
		err  error
	)

	if path == "" {
		data, err = assets.ReadFile("data/protocol.min.json")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	labels := make(map[int]string, len(entries))
	for _, e := range entries {
		labels[e.Version] = e.MinecraftVersion
	}

	log.Debug().Int("entries", len(labels)).Msg("Protocol table loaded")
	return &Table{labels: labels}, nil
}

// Lookup returns the version label for a protocol id, exact match only.
func (t *Table) Lookup(id int) (string, bool) {
	label, ok := t.labels[id]
	return label, ok
}

// Label returns the version label for a protocol id, falling back to
// the decimal id itself for ids absent from the table. It never fails.
func (t *Table) Label(id int) string {
	if label, ok := t.labels[id]; ok {
		return label
	}

	return strconv.Itoa(id)
}

// Len returns the number of table entries.
func (t *Table) Len() int {
	return len(t.labels)
}
