package downloader

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Entry is one remote file listed by a manifest table.
type Entry struct {
	Path           string `yaml:"path"`
	CompressedSize uint64 `yaml:"compressedSize"`
}

// PackageInfo carries the remote version of the entry at the same position.
// A version of zero or below means the file is not published.
type PackageInfo struct {
	Version int64 `yaml:"version"`
}

// Table pairs entries with package info positionally.
type Table struct {
	Name        string        `yaml:"name"`
	Entries     []Entry       `yaml:"entries"`
	PackageInfo []PackageInfo `yaml:"packageInfo"`
}

// Manifest lists every table a game exposes for download.
type Manifest struct {
	Tables []Table `yaml:"tables"`
}

// LoadManifest decodes a YAML manifest.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return &m, nil
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// version returns the published version of entry i, or 0 when the table has
// no package info for it.
func (t *Table) version(i int) int64 {
	if i >= len(t.PackageInfo) {
		return 0
	}
	return t.PackageInfo[i].Version
}
