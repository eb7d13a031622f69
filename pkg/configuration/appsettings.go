package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type appSettings struct {
	ConnectionStrings map[string]string `json:"ConnectionStrings"`
}

// ReadConnectionString returns ConnectionStrings.<name> from an ASP.NET style
// appsettings JSON file.
func ReadConnectionString(path, name string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var s appSettings
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	v, ok := s.ConnectionStrings[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s: ConnectionStrings.%s is not set", path, name)
	}
	return v, nil
}
