package fragment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/reelearn/reelearn/internal/registry"
)

// PunktDataDirOption is the tokenizer option naming the directory that holds
// punkt training files.
const PunktDataDirOption = "punkt_data_dir"

type punktTokenizer struct {
	tok interface {
		Tokenize(text string) []*sentences.Sentence
	}
}

func (p punktTokenizer) Tokenize(text string) ([]string, error) {
	sents := p.tok.Tokenize(text)
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		out = append(out, s.Text)
	}
	return out, nil
}

// EnglishPunkt builds the bundled English punkt tokenizer.
func EnglishPunkt(map[string]string) (Tokenizer, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("english punkt: %w", err)
	}
	return punktTokenizer{tok: tok}, nil
}

// PunktFromTraining returns a factory that loads punkt training data from
// file, resolved against the PunktDataDirOption directory when relative.
func PunktFromTraining(file string) registry.Factory[Tokenizer] {
	return func(options map[string]string) (Tokenizer, error) {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(options[PunktDataDirOption], file)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read punkt training %q: %w", path, err)
		}
		storage, err := sentences.LoadTraining(data)
		if err != nil {
			return nil, fmt.Errorf("load punkt training %q: %w", path, err)
		}
		return punktTokenizer{tok: sentences.NewSentenceTokenizer(storage)}, nil
	}
}

// NewTokenizerRegistry returns a registry with the English tokenizer and a
// training-file tokenizer for every entry in training (language to file).
func NewTokenizerRegistry(training map[Language]string) *registry.Registry[Tokenizer] {
	r := registry.New[Tokenizer]()
	r.Register(string(UniversalLanguage), EnglishPunkt)
	for lang, file := range training {
		if file == "" {
			continue
		}
		r.Register(string(lang), PunktFromTraining(file))
	}
	return r
}
