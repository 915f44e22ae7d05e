package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Stager copies uploads into a durable directory under collision-free names.
// Staged files are kept; nothing removes them.
type Stager struct {
	dir string
}

// NewStager creates a Stager writing into dir.
func NewStager(dir string) *Stager {
	return &Stager{dir: dir}
}

// Stage writes r to <dir>/<uuid hex>_<base name> and returns the path.
func (s *Stager) Stage(filename string, r io.Reader) (path string, err error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path = filepath.Join(s.dir, stagedName(filename))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close staged file: %w", cerr)
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	return path, nil
}

// stagedName keeps only the last element of the client-supplied name so
// the staged file can never land outside the upload dir.
func stagedName(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == ".." {
		base = "upload"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + base
}
