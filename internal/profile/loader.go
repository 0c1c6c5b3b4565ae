// Package profile loads profile records from fixtures and résumé documents.
package profile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/icebreaker/internal/extract"
	"github.com/hyperjump/icebreaker/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrEmptySource is returned when a file holds no profile data at all.
var ErrEmptySource = errors.New("profile source is empty")

//go:embed mock_profile.json
var mockProfile []byte

// Mock returns the built-in sample profile. Each call returns a fresh copy.
func Mock() *models.ProfileRecord {
	p, err := decodeJSON(mockProfile)
	if err != nil {
		panic(fmt.Sprintf("profile: embedded mock profile is invalid: %v", err))
	}
	return p
}

// Load reads a profile from path. JSON and YAML files are decoded as profile
// records; PDF, DOCX, text and Markdown files are treated as résumés.
func Load(path string) (*models.ProfileRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := LoadBytes(content, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// LoadBytes decodes content according to ext (with leading dot).
func LoadBytes(content []byte, ext string) (*models.ProfileRecord, error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, ErrEmptySource
	}
	switch strings.ToLower(ext) {
	case ".json":
		return decodeJSON(content)
	case ".yaml", ".yml":
		var p models.ProfileRecord
		if err := yaml.Unmarshal(content, &p); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return &p, nil
	}
	text, err := extract.NewExtractor().ExtractBytes(content, ext)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptySource
	}
	return ParseResume(text), nil
}

func decodeJSON(content []byte) (*models.ProfileRecord, error) {
	var p models.ProfileRecord
	if err := json.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &p, nil
}
