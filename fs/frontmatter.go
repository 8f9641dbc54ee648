package fs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---\n"

// frontmatter is the YAML header written at the top of every markdown file.
type frontmatter struct {
	Source  string    `yaml:"source,omitempty"`
	Title   string    `yaml:"title,omitempty"`
	Fetched time.Time `yaml:"fetched"`
}

// encodeDocument renders a header followed by a blank line and the content.
func encodeDocument(fm frontmatter, content string) ([]byte, error) {
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString(frontmatterDelim)
	b.Write(header)
	b.WriteString(frontmatterDelim)
	b.WriteString("\n")
	b.WriteString(content)
	return b.Bytes(), nil
}

// decodeDocument is the inverse of encodeDocument.
func decodeDocument(data []byte) (frontmatter, string, error) {
	var fm frontmatter
	s := string(data)
	if !strings.HasPrefix(s, frontmatterDelim) {
		return fm, "", errors.New("missing frontmatter")
	}
	rest := s[len(frontmatterDelim):]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return fm, "", errors.New("unterminated frontmatter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return fm, "", err
	}
	if fm.Fetched.IsZero() {
		return fm, "", errors.New("frontmatter has no fetch time")
	}
	body := rest[end+1+len(frontmatterDelim):]
	return fm, strings.TrimPrefix(body, "\n"), nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so readers see either the old or the new file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
