package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/snappy-loop/genimage/internal/envelope"
)

const filePrefix = "image_output_"

// Store writes result envelopes as JSON files into a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir; an empty dir means os.TempDir().
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir}
}

// Path returns the envelope location for a request id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, filePrefix+id+".json")
}

// Save writes env for id and returns its path. The file is written to a temporary
// name and renamed, so readers never observe a partial envelope.
func (s *Store) Save(id string, env *envelope.Envelope) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid request id %q", id)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshalling envelope %s: %w", id, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+filePrefix+id+"-*")
	if err != nil {
		return "", fmt.Errorf("writing envelope %s: %w", id, err)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing envelope %s: %w", id, err)
	}

	path := s.Path(id)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("renaming envelope %s: %w", id, err)
	}
	return path, nil
}

// Load reads an envelope written by Save.
func Load(path string) (*envelope.Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading envelope %s: %w", path, err)
	}
	var env envelope.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshalling envelope %s: %w", path, err)
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("envelope %s: %w", path, err)
	}
	return &env, nil
}

// Remove deletes an envelope file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing envelope %s: %w", path, err)
	}
	return nil
}
