package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"duck-commerce/internal/ddl"
	"duck-commerce/internal/domain"
)

// sourcesManifest is the YAML layout of SOURCES_FILE:
//
//	sources:
//	  - file: olist_orders_dataset.csv
//	    table: orders
type sourcesManifest struct {
	Sources []domain.SourceFile `yaml:"sources"`
}

// Sources returns the source files to ingest: the manifest when SourcesFile is
// set, the built-in list otherwise.
func (c *Config) Sources() ([]domain.SourceFile, error) {
	if c.SourcesFile == "" {
		return domain.DefaultSourceFiles(), nil
	}
	return LoadSources(c.SourcesFile)
}

// LoadSources reads and validates a YAML source manifest.
func LoadSources(path string) ([]domain.SourceFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read sources manifest: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes a manifest and checks every entry.
func ParseSources(data []byte) ([]domain.SourceFile, error) {
	var m sourcesManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse sources manifest: %w", err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("sources manifest lists no files")
	}

	tables := make(map[string]string, len(m.Sources))
	for i, s := range m.Sources {
		s.FileName = strings.TrimSpace(s.FileName)
		if s.FileName == "" {
			return nil, fmt.Errorf("source %d: file is required", i+1)
		}
		if err := ddl.ValidateIdentifier(s.Table); err != nil {
			return nil, fmt.Errorf("source %d (%s): invalid table: %w", i+1, s.FileName, err)
		}
		key := strings.ToLower(s.Table)
		if prev, dup := tables[key]; dup {
			return nil, fmt.Errorf("source %d (%s): table %q already used by %s", i+1, s.FileName, s.Table, prev)
		}
		tables[key] = s.FileName
		m.Sources[i] = s
	}
	return m.Sources, nil
}
