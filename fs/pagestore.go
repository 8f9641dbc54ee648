package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.PageStore = (*FileStore)(nil)

// FileStore implements libdoc.PageStore with atomic update semantics.
// Pages are saved to a temporary directory, then moved into place on Commit.
type FileStore struct {
	baseDir string
	name    string
	now     func() time.Time
}

// NewFileStore creates a new FileStore.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
		now:     time.Now,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

// Dir returns the directory pages end up in after Commit.
func (s *FileStore) Dir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes the page as markdown with YAML frontmatter.
func (s *FileStore) Save(ctx context.Context, page *libdoc.Page) error {
	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}

	data, err := encodeDocument(frontmatter{
		Source:  page.URL,
		Title:   page.Title,
		Fetched: s.now().UTC(),
	}, page.Content)
	if err != nil {
		return libdoc.Errorf(libdoc.EINTERNAL, "encode %s: %v", page.URL, err)
	}

	fullPath := filepath.Join(s.tempDir(), filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "save %s: %v", page.URL, err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "save %s: %v", page.URL, err)
	}
	return nil
}

// Commit replaces the output directory with the saved pages.
func (s *FileStore) Commit() error {
	if err := os.RemoveAll(s.Dir()); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "commit: %v", err)
	}
	if err := os.Rename(s.tempDir(), s.Dir()); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "commit: %v", err)
	}
	return nil
}

// Abort discards the saved pages.
func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// URLToPath converts a documentation URL to a relative file path.
// Example: https://example.com/docs/api/users → docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", libdoc.Errorf(libdoc.EINVALID, "invalid URL %q", rawURL)
	}

	p := u.Path
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", libdoc.Errorf(libdoc.EINVALID, "path traversal in %q", rawURL)
		}
	}

	if p == "" || p == "/" {
		return "index.md", nil
	}
	trailing := strings.HasSuffix(p, "/")
	p = strings.TrimPrefix(path.Clean(p), "/")
	if trailing {
		return p + "/index.md", nil
	}
	if strings.EqualFold(path.Ext(p), ".md") {
		return p, nil
	}
	return p + ".md", nil
}
