package answer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/domain"
	"github.com/tgassist/tgassist/internal/domain/search/result"
	"github.com/tgassist/tgassist/internal/logger"
)

// ErrEmptyQuestion is returned for blank input.
var ErrEmptyQuestion = errors.New("empty question")

// excerptRunes caps the content preview of each listed material.
const excerptRunes = 280

// Reply messages (Telegram HTML).
const (
	untitled         = "Без названия"
	msgEmptyQuestion = "Напишите свой вопрос одним сообщением."
	msgNothingFound  = "🤷 По этой теме в материалах пока ничего не нашлось. Попробуйте переформулировать вопрос."
	msgTryAgain      = "⚠️ Сейчас не получается выполнить поиск по материалам. Попробуйте через минуту."
	msgFoundHeader   = "📚 <b>Вот что я нашёл:</b>\n"
	msgSuggestHeader = "💡 <b>Не удалось оценить релевантность материалов, но, возможно, пригодятся эти:</b>\n"
)

// Reply is the composed answer for one question.
type Reply struct {
	Text    string
	Matches int
	Ranked  bool
}

// Config holds retrieval parameters.
type Config struct {
	Limit     int
	Threshold float64
}

// Service answers free-form questions from the stored materials.
type Service struct {
	embedder  domain.Embedder
	retriever Retriever
	cfg       Config
}

// New creates a Service.
func New(embedder domain.Embedder, retriever Retriever, cfg Config) *Service {
	return &Service{embedder: embedder, retriever: retriever, cfg: cfg}
}

// Answer embeds the question and lists the best matching materials.
// On error the returned Reply still carries a user-facing text.
func (s *Service) Answer(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{Text: msgEmptyQuestion}, ErrEmptyQuestion
	}

	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Reply{Text: msgTryAgain}, fmt.Errorf("embed question: %w", err)
	}

	results := s.retriever.Retrieve(ctx, emb.Embedding, s.cfg.Limit, s.cfg.Threshold)
	logger.FromContext(ctx).Debug("Question answered",
		zap.Int("matches", len(results)),
		zap.Int("tokens", emb.TotalTokens),
	)
	if len(results) == 0 {
		return Reply{Text: msgNothingFound}, nil
	}

	return Compose(results), nil
}

// Compose renders results as a numbered HTML list. Unranked results are
// presented as suggestions without a score.
func Compose(results []result.Result) Reply {
	ranked := false
	for i := range results {
		if results[i].Ranked() {
			ranked = true
			break
		}
	}

	var b strings.Builder
	if ranked {
		b.WriteString(msgFoundHeader)
	} else {
		b.WriteString(msgSuggestHeader)
	}

	for i := range results {
		r := &results[i]
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. <b>%s</b>", i+1, html.EscapeString(r.Title().Or(untitled)))
		if t := r.Type(); t.IsPresent() && t.Value() != "" {
			fmt.Fprintf(&b, " (%s)", html.EscapeString(t.Value()))
		}
		if r.Ranked() {
			fmt.Fprintf(&b, " · %d%%", percent(r.Similarity()))
		}
		b.WriteString("\n")
		if ex := excerpt(r.ContentText(), excerptRunes); ex != "" {
			fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(ex))
		}
	}

	return Reply{Text: strings.TrimRight(b.String(), "\n"), Matches: len(results), Ranked: ranked}
}

func percent(sim float64) int {
	p := int(sim*100 + 0.5)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// excerpt collapses whitespace and cuts s to at most n runes on a word boundary.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)[:n]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
