package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xaenox/bizchat/internal/embedding"
	"github.com/xaenox/bizchat/internal/models"
	"github.com/xaenox/bizchat/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var catalog = []models.Intent{
	{Tag: "greeting", Patterns: []string{"¡Hola!", "buenas"}, Responses: []string{"Hola! ¿En qué puedo ayudarte?"}},
	{Tag: "hours", Patterns: []string{"horario", "a que hora abren", "cuando cierran"}, Responses: []string{"De 9 a 18h."}},
	{Tag: "fallback", Patterns: []string{}, Responses: []string{"No estoy seguro..."}},
}

// fileCatalog writes intents to a temporary JSON catalog and returns its source.
func fileCatalog(t *testing.T, intents []models.Intent) *storage.FileSource {
	t.Helper()
	src := storage.NewFileSource(filepath.Join(t.TempDir(), "kb.json"))
	if err := src.ReplaceIntents(context.Background(), intents); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}
	return src
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) (embedding.Vector, error) {
	return nil, errors.New("model unavailable")
}

func (failingEmbedder) Similarity(a, b embedding.Vector) float64 {
	return embedding.CosineSimilarity(a, b)
}

func TestCompile_ParallelVectors(t *testing.T) {
	t.Parallel()

	b, err := Compile(context.Background(), catalog, embedding.NewLocalEmbedder(0))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if b.Len() != len(catalog) {
		t.Fatalf("Len = %d, want %d", b.Len(), len(catalog))
	}
	for i := 0; i < b.Len(); i++ {
		if got, want := len(b.Vectors(i)), len(b.Intent(i).Patterns); got != want {
			t.Errorf("intent %q: %d vectors for %d patterns", b.Intent(i).Tag, got, want)
		}
	}
}

func TestCompile_NormalizesPatterns(t *testing.T) {
	t.Parallel()

	e := embedding.NewLocalEmbedder(0)
	b, err := Compile(context.Background(), catalog, e)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	input, _ := e.Embed(context.Background(), "hola")
	if got := e.Similarity(input, b.Vectors(0)[0]); got != 1 {
		t.Errorf("similarity of \"hola\" to pattern \"¡Hola!\" = %v, want 1", got)
	}
}

func TestCompile_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	in := []models.Intent{{Tag: "a", Patterns: []string{"x"}, Responses: []string{"r"}}}
	b, err := Compile(context.Background(), in, embedding.NewLocalEmbedder(8))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	in[0].Responses[0] = "changed"
	if got := b.Intent(0).Responses[0]; got != "r" {
		t.Errorf("compiled base changed with its input: %q", got)
	}
}

func TestCompile_EmbedError(t *testing.T) {
	t.Parallel()

	if _, err := Compile(context.Background(), catalog, failingEmbedder{}); err == nil {
		t.Error("Compile should surface embedding failures")
	}
}

func TestBase_FallbackAndTags(t *testing.T) {
	t.Parallel()

	b, _ := Compile(context.Background(), catalog, embedding.NewLocalEmbedder(8))
	fb, ok := b.Fallback()
	if !ok || fb.Tag != models.FallbackTag {
		t.Errorf("Fallback = %+v, %v", fb, ok)
	}
	if want := []string{"greeting", "hours", "fallback"}; !reflect.DeepEqual(b.Tags(), want) {
		t.Errorf("Tags = %v, want %v", b.Tags(), want)
	}

	empty := Empty()
	if _, ok := empty.Fallback(); ok {
		t.Error("empty base should have no fallback")
	}
	if empty.Len() != 0 || len(empty.Tags()) != 0 {
		t.Error("empty base should have no intents")
	}
}

func TestLoad_MissingSourceDegrades(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	src := storage.NewFileSource(filepath.Join(t.TempDir(), "missing.json"))

	intents := Load(context.Background(), src, zap.New(core))
	if len(intents) != 0 {
		t.Errorf("intents = %v, want none", intents)
	}
	if logs.FilterMessageSnippet("empty catalog").Len() != 1 {
		t.Errorf("expected a warning about the empty catalog, got %v", logs.All())
	}
}

func TestLoad_SkipsInvalidIntents(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	src := fileCatalog(t, []models.Intent{
		{Tag: "greeting", Patterns: []string{"hola"}},
		{Tag: "", Patterns: []string{"sin tag"}},
		{Tag: "greeting", Patterns: []string{"duplicado"}},
		{Tag: "bye", Patterns: []string{"adios"}},
	})

	intents := Load(context.Background(), src, zap.New(core))
	if len(intents) != 2 || intents[0].Patterns[0] != "hola" || intents[1].Tag != "bye" {
		t.Errorf("intents = %+v", intents)
	}
	if logs.Len() != 2 {
		t.Errorf("warnings = %d, want 2", logs.Len())
	}
}

func TestLoad_EmptyCatalogWarns(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	Load(context.Background(), fileCatalog(t, nil), zap.New(core))
	if logs.FilterMessage("Knowledge base is empty").Len() != 1 {
		t.Errorf("expected empty catalog warning, got %v", logs.All())
	}
}

func TestRegistry_Reload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := fileCatalog(t, catalog[:1])
	r, err := NewRegistry(ctx, src, embedding.NewLocalEmbedder(0), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	before := r.Current()
	if before.Len() != 1 {
		t.Fatalf("Len = %d, want 1", before.Len())
	}

	if err := src.ReplaceIntents(ctx, catalog); err != nil {
		t.Fatalf("ReplaceIntents: %v", err)
	}
	if err := r.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if r.Current().Len() != len(catalog) {
		t.Errorf("Len after reload = %d", r.Current().Len())
	}
	if before.Len() != 1 {
		t.Error("a published base must never change")
	}
}

func TestRegistry_FailedReloadKeepsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r, err := NewRegistry(ctx, fileCatalog(t, catalog), embedding.NewLocalEmbedder(0), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	prev := r.Current()

	r.embedder = failingEmbedder{}
	if err := r.Reload(ctx); err == nil {
		t.Fatal("Reload should fail")
	}
	if r.Current() != prev {
		t.Error("failed reload replaced the current base")
	}
}

type countingReloader struct {
	calls atomic.Int32
	done  chan struct{}
}

func (c *countingReloader) Reload(context.Context) error {
	if c.calls.Add(1) == 1 {
		close(c.done)
	}
	return nil
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "kb.json")
	if err := os.WriteFile(path, []byte(`{"intents": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloader := &countingReloader{done: make(chan struct{})}
	w, err := NewWatcher(path, reloader, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"intents": [{"tag": "a"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloader.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger a reload")
	}
}
