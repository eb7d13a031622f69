package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func writeJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return withCode(exitUsage, fmt.Errorf("mkdir %s: %w", dir, err))
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("json marshal: %w", err))
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return withCode(exitUsage, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}
