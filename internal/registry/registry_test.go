package registry

import (
	"errors"
	"strings"
	"testing"
)

type backend struct{ model string }

func TestRegistryCreate(t *testing.T) {
	r := New[*backend]()
	r.Register("whisper", func(options map[string]string) (*backend, error) {
		return &backend{model: options["model"]}, nil
	})
	r.Register("broken", func(map[string]string) (*backend, error) {
		return nil, errors.New("missing api key")
	})

	b, err := r.Create("whisper", map[string]string{"model": "whisper-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.model != "whisper-1" {
		t.Errorf("model = %q, want %q", b.model, "whisper-1")
	}

	_, err = r.Create("broken", nil)
	if err == nil || !strings.HasPrefix(err.Error(), "broken: ") {
		t.Errorf("factory error = %v, want prefixed with name", err)
	}

	_, err = r.Create("deepgram", nil)
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("err = %v, want ErrUnknown", err)
	}
	if err != nil && !strings.Contains(err.Error(), "broken, whisper") {
		t.Errorf("err = %v, want known names listed", err)
	}

	if !r.Has("broken") || r.Has("deepgram") {
		t.Error("Has returned wrong result")
	}
	if names := r.List(); strings.Join(names, ",") != "broken,whisper" {
		t.Errorf("List() = %v, want [broken whisper]", names)
	}
}

func TestRegistryReplace(t *testing.T) {
	r := New[string]()
	r.Register("en", func(map[string]string) (string, error) { return "old", nil })
	r.Register("en", func(map[string]string) (string, error) { return "new", nil })

	if got, err := r.Create("en", nil); err != nil || got != "new" {
		t.Errorf("Create = %q, %v; want new", got, err)
	}
}
