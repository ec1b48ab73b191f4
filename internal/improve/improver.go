package improve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jusunglee/shittracker/internal/incident"
	"github.com/jusunglee/shittracker/internal/llm"
	"github.com/jusunglee/shittracker/internal/metrics"
)

var (
	// ErrNoContent is returned without calling the backend when there is
	// nothing to rewrite.
	ErrNoContent = errors.New("no text content to improve")
	// ErrEmptyCompletion is returned when the backend answered with nothing usable.
	ErrEmptyCompletion = errors.New("empty completion")
)

type Improver struct {
	llm llm.Client
}

func NewImprover(client llm.Client) *Improver {
	return &Improver{llm: client}
}

const systemPrompt = `You are a helpful assistant that improves text to be more respectful and appropriate.`

const promptTemplate = `You are a helpful assistant that improves inappropriate or problematic text messages to make them more respectful and constructive.

Original message: "%s"

Please provide an improved version that:
1. Maintains the core intent/meaning if possible
2. Uses respectful and appropriate language
3. Is constructive rather than destructive
4. Follows community guidelines
5. Is concise (under 200 characters)

If the message cannot be improved while maintaining any meaningful intent, suggest a completely different constructive message on a similar topic.

Respond with only the improved text, no explanations or quotes.`

func buildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Improve asks the backend for a respectful rewrite of text.
func (i *Improver) Improve(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(text) == incident.NoContent {
		metrics.ImprovementsTotal.WithLabelValues("skipped").Inc()
		return "", ErrNoContent
	}

	start := time.Now()
	completion, err := i.llm.Complete(ctx, systemPrompt, buildPrompt(text))
	metrics.ImprovementDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ImprovementsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("requesting improvement: %w", err)
	}

	improved := llm.StripQuotes(llm.StripMarkdownCodeBlocks(completion))
	if improved == "" {
		metrics.ImprovementsTotal.WithLabelValues("empty").Inc()
		return "", ErrEmptyCompletion
	}

	metrics.ImprovementsTotal.WithLabelValues("success").Inc()
	return improved, nil
}
