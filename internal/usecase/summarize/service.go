package summarize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/domain"
	"github.com/tgassist/tgassist/internal/extract"
	"github.com/tgassist/tgassist/internal/logger"
	"github.com/tgassist/tgassist/internal/repository/metadata"
)

// maxContentRunes keeps long transcripts inside the model context window.
const maxContentRunes = 60000

// ErrNoFiles signals an input directory without supported files.
var ErrNoFiles = errors.New("no .txt or .pdf files to process")

// Completer is the LLM used to write descriptions.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// MetadataStore persists one entry per content file stem.
type MetadataStore interface {
	Save(ctx context.Context, stem string, e metadata.Entry) error
}

// Summary counts the outcome of a batch.
type Summary struct {
	Succeeded int
	Failed    int
	Failures  map[string]error
}

// Service generates name and descriptions for content files.
type Service struct {
	completer Completer
	store     MetadataStore
	extract   func(path string) (string, error)
}

// New creates a Service reading files with extract.Text.
func New(completer Completer, store MetadataStore) *Service {
	return &Service{completer: completer, store: store, extract: extract.Text}
}

// Describe asks the model for a name (max 5 words), a short (1-2 sentences)
// and a long (3-5 sentences) description. Any empty answer is an error.
func (s *Service) Describe(ctx context.Context, content string) (metadata.Entry, error) {
	if r := []rune(content); len(r) > maxContentRunes {
		content = string(r[:maxContentRunes])
	}

	name, err := s.ask(ctx, namePrompt, content)
	if err != nil {
		return metadata.Entry{}, fmt.Errorf("name: %w", err)
	}
	short, err := s.ask(ctx, shortPrompt, content)
	if err != nil {
		return metadata.Entry{}, fmt.Errorf("short description: %w", err)
	}
	long, err := s.ask(ctx, longPrompt, content)
	if err != nil {
		return metadata.Entry{}, fmt.Errorf("long description: %w", err)
	}

	return metadata.Entry{Name: name, ShortDescription: short, LongDescription: long}, nil
}

func (s *Service) ask(ctx context.Context, p prompt, content string) (string, error) {
	text, err := s.completer.Complete(ctx, p.system, p.user+"\n\n"+content)
	if err != nil {
		return "", err //nolint:wrapcheck // wrapped by Describe
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}

// ProcessFile extracts, describes and saves one file under its stem.
func (s *Service) ProcessFile(ctx context.Context, path string) error {
	content, err := s.extract(path)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%s has no text: %w", path, domain.ErrUnsupportedFile)
	}

	entry, err := s.Describe(ctx, content)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, extract.Stem(path), entry); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// ProcessFiles handles each path independently; one failure never stops the batch.
// A cancelled context stops before the next file.
func (s *Service) ProcessFiles(ctx context.Context, paths []string) Summary {
	log := logger.FromContext(ctx)
	sum := Summary{Failures: map[string]error{}}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		log.Info("Processing file", zap.String("file", path))

		if err := s.ProcessFile(ctx, path); err != nil {
			sum.Failed++
			sum.Failures[path] = err
			log.Error("File failed", zap.String("file", path), zap.Error(err))
			continue
		}
		sum.Succeeded++
	}

	log.Info("Processing complete",
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
	return sum
}

// ProcessDir processes every supported file in dir (not recursive), in name order.
func (s *Service) ProcessDir(ctx context.Context, dir string) (Summary, error) {
	paths, err := ListInputs(dir)
	if err != nil {
		return Summary{}, err
	}
	return s.ProcessFiles(ctx, paths), nil
}

// ListInputs returns the supported files in dir sorted by name.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !extract.Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFiles)
	}
	sort.Strings(paths)
	return paths, nil
}
