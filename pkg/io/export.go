package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteJSON encodes a snapshot as indented JSON.
// The output can be re-imported with [ReadJSON].
func WriteJSON(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes a snapshot as YAML.
func WriteYAML(s *Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Marshal encodes a snapshot as compact JSON, the form stored in caches.
func Marshal(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// ExportJSON writes a snapshot to a JSON file at path.
func ExportJSON(s *Snapshot, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteJSON(s, w) })
}

// ExportYAML writes a snapshot to a YAML file at path.
func ExportYAML(s *Snapshot, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteYAML(s, w) })
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
