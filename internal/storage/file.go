package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xaenox/bizchat/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	_ CatalogSource = (*FileSource)(nil)
	_ CatalogWriter = (*FileSource)(nil)
)

// FileSource reads a catalog from a JSON or YAML document shaped as
// {"intents": [{"tag": ..., "patterns": [...], "responses": [...]}]}.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) LoadIntents(ctx context.Context) ([]models.Intent, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	var doc models.KnowledgeFile
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing catalog file %s: %w", s.path, err)
	}

	return doc.Intents, nil
}

// ReplaceIntents writes the catalog back to disk in the file's format.
func (s *FileSource) ReplaceIntents(ctx context.Context, intents []models.Intent) error {
	doc := models.KnowledgeFile{Intents: intents}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(doc)
	default:
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("error encoding catalog: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing catalog file: %w", err)
	}
	return nil
}

func (s *FileSource) Describe() string {
	return "file:" + s.path
}

func (s *FileSource) Close() error {
	return nil
}
