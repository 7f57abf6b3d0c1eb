package navtrack

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// This file persists the two documents on disk.
//
// Writes are change-gated: the canonical bytes are compared with the current
// file content and nothing is written when they are equal. Actual writes go
// through a temp file and a rename so a crash can never leave a truncated
// document masquerading as latest data.

// writeFileIfChanged writes data to path only if it differs from the current
// content, and reports whether a write occurred.
func writeFileIfChanged(path string, data []byte) (changed bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("cannot create folder for %q: %w", path, err)
	}
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, data) {
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("cannot create temp file for %q: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, fmt.Errorf("cannot write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("cannot close %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("cannot replace %q: %w", path, err)
	}
	return true, nil
}

// PriceStore persists one canonical price document per fund in a folder.
type PriceStore struct {
	Dir string
}

func (p *PriceStore) path(isin string) string {
	return filepath.Join(p.Dir, isin+".json")
}

// Load reads the persisted series for a fund. A missing file is an empty
// series, not an error. A malformed file returns an ErrFormat error.
func (p *PriceStore) Load(isin string) (*Series, error) {
	data, err := os.ReadFile(p.path(isin))
	if os.IsNotExist(err) {
		return new(Series), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read price document %q: %w", p.path(isin), err)
	}
	s, err := DecodeSeries(data)
	if err != nil {
		return nil, fmt.Errorf("price document %q: %w", p.path(isin), err)
	}
	return s, nil
}

// SaveIfChanged persists the series and reports whether the file content changed.
func (p *PriceStore) SaveIfChanged(isin string, s *Series) (changed bool, err error) {
	data, err := EncodeSeries(s)
	if err != nil {
		return false, err
	}
	return writeFileIfChanged(p.path(isin), data)
}

// isinRE matches the isin naming of price documents. Other json files in the
// folder (the metadata document in particular) are not price documents and
// must survive GC.
var isinRE = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// List returns the isins that currently have a price document on disk.
func (p *PriceStore) List() ([]string, error) {
	names, err := filepath.Glob(filepath.Join(p.Dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("cannot scan folder %q: %w", p.Dir, err)
	}
	isins := make([]string, 0, len(names))
	for _, name := range names {
		isin := strings.TrimSuffix(filepath.Base(name), ".json")
		if isinRE.MatchString(isin) {
			isins = append(isins, isin)
		}
	}
	return isins, nil
}

// Delete removes the price document of a fund. Missing files are fine.
func (p *PriceStore) Delete(isin string) error {
	err := os.Remove(p.path(isin))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot delete price document %q: %w", p.path(isin), err)
	}
	return nil
}

// GC deletes the price documents of funds that are no longer configured and
// reports whether anything was removed.
func (p *PriceStore) GC(active []string) (changed bool, err error) {
	keep := make(map[string]bool, len(active))
	for _, isin := range active {
		keep[isin] = true
	}
	stored, err := p.List()
	if err != nil {
		return false, err
	}
	for _, isin := range stored {
		if keep[isin] {
			continue
		}
		log.Printf("deleting price history of removed fund %s", isin)
		if err := p.Delete(isin); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// MetadataStore persists the single metadata document.
type MetadataStore struct {
	Path string
}

// Load reads the metadata document. Like the price store, a missing file is
// an empty document. A malformed document is also degraded to an empty one:
// metadata is a cache of discovered attributes and is fully rebuilt by a run.
func (m *MetadataStore) Load() *Metadata {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return NewMetadata()
	}
	doc, err := DecodeMetadata(data)
	if err != nil {
		log.Printf("ignoring malformed metadata %q: %v", m.Path, err)
		return NewMetadata()
	}
	return doc
}

// SaveIfChanged persists the document and reports whether the file content changed.
func (m *MetadataStore) SaveIfChanged(doc *Metadata) (changed bool, err error) {
	data, err := EncodeMetadata(doc)
	if err != nil {
		return false, err
	}
	return writeFileIfChanged(m.Path, data)
}
