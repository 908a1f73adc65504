package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Notebooks []string `yaml:"notebooks"`
}

// readManifest loads a YAML notebook manifest and returns the slugs it
// names. Entries may be bare slugs or owner/slug refs; the owner part is
// dropped because a run only ever covers one Kaggle user.
func readManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	var slugs []string
	for _, entry := range m.Notebooks {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if i := strings.LastIndex(entry, "/"); i >= 0 {
			entry = entry[i+1:]
		}
		slugs = append(slugs, entry)
	}
	if len(slugs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no notebooks", path)
	}
	return slugs, nil
}
