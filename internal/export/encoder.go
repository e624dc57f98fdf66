package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Ning0612/dataexporter/internal/domain"
)

// Format is a manifest encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses "json", "yaml" or "yml" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: json, yaml)", domain.ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension for f, including the dot
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode writes m to w
func Encode(w io.Writer, m *Manifest, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, f)
	}
}

// Decode reads a manifest written by Encode
func Decode(r io.Reader, f Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&m)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&m)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// WriteFile encodes m into path through a temp file and a rename, so
// readers never see a half written manifest
func WriteFile(path string, m *Manifest, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempPath := path + ".dataexporter.tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	encErr := Encode(file, m, f)
	closeErr := file.Close()

	if encErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", encErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move manifest into place: %w", err)
	}
	return nil
}
