// Package auth supplies the XBL3.0 authorization header consumed by the
// upstream identity and realm providers. Token acquisition itself happens
// out of process; this package only reads the credential material.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// ErrEmptyCredentials indicates the credential file held no usable token.
var ErrEmptyCredentials = errors.New("auth: empty credentials")

// Credentials is the token material written by the external auth flow.
type Credentials struct {
	UserHash  string `json:"userHash"`
	XSTSToken string `json:"xstsToken"`
}

// Header formats the credentials as an XBL3.0 authorization header value.
func (c Credentials) Header() string {
	return fmt.Sprintf("XBL3.0 x=%s;%s", c.UserHash, c.XSTSToken)
}

// Provider yields the current authorization header.
type Provider interface {
	Header() (string, error)
}

// Static is a fixed-credential Provider, useful for tests and
// environments where rotation is handled by restarting the process.
type Static struct {
	Credentials Credentials
}

// Header implements Provider.
func (s Static) Header() (string, error) {
	if s.Credentials.UserHash == "" || s.Credentials.XSTSToken == "" {
		return "", ErrEmptyCredentials
	}

	return s.Credentials.Header(), nil
}

// FileProvider reads credentials from a JSON file and caches the last
// good value. Reload is triggered externally (see Watch) when the file
// rotates.
type FileProvider struct {
	path   string
	mu     sync.Mutex
	cached string
}

// NewFileProvider creates a FileProvider for the given credential file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Load reads and caches the credentials from the provider's file.
// The returned boolean indicates whether the value differs from the
// previously cached one.
func (p *FileProvider) Load() (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", false, errors.Wrap(err, "read credential file")
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", false, errors.Wrap(err, "parse credential file")
	}

	if creds.UserHash == "" || creds.XSTSToken == "" {
		p.cached = ""
		return "", false, ErrEmptyCredentials
	}

	header := creds.Header()
	if header == p.cached {
		return p.cached, false, nil
	}

	p.cached = header
	return header, true, nil
}

// Header implements Provider, loading from disk when nothing is cached yet.
func (p *FileProvider) Header() (string, error) {
	p.mu.Lock()
	cached := p.cached
	p.mu.Unlock()

	if cached != "" {
		return cached, nil
	}

	header, _, err := p.Load()
	return header, err
}
