package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Persisted keys. All three are written and cleared together.
const (
	KeyUser         = "user"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Persister stores session fields across process restarts.
type Persister interface {
	// Load returns the stored fields; an empty map when nothing is stored.
	Load() (map[string]string, error)
	// Save replaces the stored fields.
	Save(fields map[string]string) error
	// Clear removes every stored field.
	Clear() error
}

// FilePersister keeps the session in a JSON file, written atomically.
type FilePersister struct {
	Path string
}

func (p FilePersister) Load() (map[string]string, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	fields := map[string]string{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}
	return fields, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so a crash never leaves a half-written session.
func (p FilePersister) Save(fields map[string]string) error {
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("securing session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Rename(tmpName, p.Path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

func (p FilePersister) Clear() error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemoryPersister keeps the session in memory. Used by the gateway and tests.
type MemoryPersister struct {
	mu     sync.Mutex
	fields map[string]string
}

func (p *MemoryPersister) Load() (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.fields))
	for k, v := range p.fields {
		out[k] = v
	}
	return out, nil
}

func (p *MemoryPersister) Save(fields map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fields = make(map[string]string, len(fields))
	for k, v := range fields {
		p.fields[k] = v
	}
	return nil
}

func (p *MemoryPersister) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fields = nil
	return nil
}
