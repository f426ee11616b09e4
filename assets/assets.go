// Package assets provides access to embedded static data files.
package assets

import "embed"

//go:embed data/*.min.json
var embedFS embed.FS

// ReadFile returns the content of a specific embedded file by its name.
func ReadFile(name string) ([]byte, error) {
	return embedFS.ReadFile(name)
}
