package fragment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/reelearn/reelearn/internal/registry"
)

// UniversalLanguage names the tokenizer used when a language has none of
// its own or its tokenizer fails.
const UniversalLanguage Language = "en"

// Tokenizer splits text into sentences.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// TokenizerFunc adapts a plain function to Tokenizer.
type TokenizerFunc func(text string) ([]string, error)

func (f TokenizerFunc) Tokenize(text string) ([]string, error) { return f(text) }

// Splitter splits text into sentences with a per-language tokenizer. Each
// Splitter owns its tokenizer cache; instances never share tokenizers.
type Splitter struct {
	factories *registry.Registry[Tokenizer]
	options   map[string]string

	mu    sync.Mutex
	cache map[Language]Tokenizer
}

// NewSplitter creates a splitter over the given tokenizer factories, keyed by
// language code. options is passed to every factory.
func NewSplitter(factories *registry.Registry[Tokenizer], options map[string]string) *Splitter {
	if factories == nil {
		factories = registry.New[Tokenizer]()
	}
	return &Splitter{
		factories: factories,
		options:   options,
		cache:     make(map[Language]Tokenizer),
	}
}

// Split returns the sentences of text. For non-empty text the result is
// never empty.
func (s *Splitter) Split(ctx context.Context, text string, lang Language) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if tok := s.tokenizer(ctx, lang); tok != nil {
		out, err := tokenize(tok, trimmed)
		if err == nil {
			return out
		}
		slog.WarnContext(ctx, "sentence tokenizer failed, using universal tokenizer",
			slog.String("language", string(lang)),
			slog.String("error", err.Error()))
	}

	if lang != UniversalLanguage {
		if tok := s.tokenizer(ctx, UniversalLanguage); tok != nil {
			out, err := tokenize(tok, trimmed)
			if err == nil {
				return out
			}
			slog.WarnContext(ctx, "universal sentence tokenizer failed, splitting on periods",
				slog.String("error", err.Error()))
		}
	}

	if out := splitOnPeriods(trimmed); len(out) > 0 {
		return out
	}
	return []string{trimmed}
}

// tokenizer returns the cached tokenizer for lang, creating it on first use.
// A failed creation is cached as nil so the factory is not retried.
func (s *Splitter) tokenizer(ctx context.Context, lang Language) Tokenizer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok, ok := s.cache[lang]; ok {
		return tok
	}
	if !s.factories.Has(string(lang)) {
		s.cache[lang] = nil
		return nil
	}

	tok, err := s.factories.Create(string(lang), s.options)
	if err != nil {
		slog.WarnContext(ctx, "create sentence tokenizer",
			slog.String("language", string(lang)),
			slog.String("error", err.Error()))
		tok = nil
	}
	s.cache[lang] = tok
	return tok
}

// tokenize runs tok and normalises its output. A panic or an empty result
// is reported as an error.
func tokenize(tok Tokenizer, text string) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("tokenizer panic: %v", r)
		}
	}()

	raw, err := tok.Tokenize(text)
	if err != nil {
		return nil, err
	}
	out = compact(raw)
	if len(out) == 0 {
		return nil, fmt.Errorf("tokenizer returned no sentences")
	}
	return out, nil
}

func splitOnPeriods(text string) []string {
	return compact(strings.SplitAfter(text, "."))
}

func compact(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
