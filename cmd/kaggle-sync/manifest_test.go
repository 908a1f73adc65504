package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notebooks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadManifest(t *testing.T) {
	path := writeManifest(t, `notebooks:
  - titanic-eda
  - ayse/veri-analizi
  - "  spaced-slug  "
  - ""
`)

	got, err := readManifest(path)
	if err != nil {
		t.Fatalf("readManifest: %v", err)
	}
	want := []string{"titanic-eda", "veri-analizi", "spaced-slug"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("readManifest = %v, want %v", got, want)
	}
}

func TestReadManifest_Empty(t *testing.T) {
	path := writeManifest(t, "notebooks: []\n")

	if _, err := readManifest(path); err == nil {
		t.Error("expected error for manifest without notebooks")
	}
}

func TestReadManifest_Missing(t *testing.T) {
	if _, err := readManifest(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing manifest file")
	}
}

func TestReadManifest_Malformed(t *testing.T) {
	path := writeManifest(t, "notebooks: {not a list\n")

	if _, err := readManifest(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
