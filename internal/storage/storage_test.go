package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xaenox/bizchat/internal/models"
)

var sampleIntents = []models.Intent{
	{Tag: "greeting", Patterns: []string{"hola", "buenas"}, Responses: []string{"Hola! ¿En qué puedo ayudarte?"}},
	{Tag: "fallback", Patterns: []string{}, Responses: []string{"No estoy seguro..."}},
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileSource_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "kb.json", `{"intents": [
		{"tag": "greeting", "patterns": ["hola", "buenas"], "responses": ["Hola! ¿En qué puedo ayudarte?"]},
		{"tag": "fallback", "patterns": [], "responses": ["No estoy seguro..."]}
	]}`)

	intents, err := NewFileSource(path).LoadIntents(context.Background())
	if err != nil {
		t.Fatalf("LoadIntents: %v", err)
	}
	if !reflect.DeepEqual(intents, sampleIntents) {
		t.Errorf("intents = %+v, want %+v", intents, sampleIntents)
	}
}

func TestFileSource_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "kb.yaml", `intents:
  - tag: greeting
    patterns: [hola, buenas]
    responses: ["Hola! ¿En qué puedo ayudarte?"]
  - tag: fallback
    patterns: []
    responses: ["No estoy seguro..."]
`)

	intents, err := NewFileSource(path).LoadIntents(context.Background())
	if err != nil {
		t.Fatalf("LoadIntents: %v", err)
	}
	if !reflect.DeepEqual(intents, sampleIntents) {
		t.Errorf("intents = %+v, want %+v", intents, sampleIntents)
	}
}

func TestFileSource_Missing(t *testing.T) {
	t.Parallel()

	src := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := src.LoadIntents(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileSource_Malformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"broken json":      `{"intents": [`,
		"intents not list": `{"intents": "greeting"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "kb.json", content)
			_, err := NewFileSource(path).LoadIntents(context.Background())
			if err == nil || errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want parse error", err)
			}
		})
	}
}

func TestFileSource_ReplaceRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"kb.json", "kb.yml"} {
		src := NewFileSource(filepath.Join(t.TempDir(), name))
		if err := src.ReplaceIntents(context.Background(), sampleIntents); err != nil {
			t.Fatalf("%s: ReplaceIntents: %v", name, err)
		}
		got, err := src.LoadIntents(context.Background())
		if err != nil {
			t.Fatalf("%s: LoadIntents: %v", name, err)
		}
		if !reflect.DeepEqual(got, sampleIntents) {
			t.Errorf("%s: got %+v", name, got)
		}
		if !strings.HasPrefix(src.Describe(), "file:") {
			t.Errorf("Describe = %q", src.Describe())
		}
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "bizchat", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=bizchat sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
