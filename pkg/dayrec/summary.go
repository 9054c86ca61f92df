package dayrec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"
)

// ErrNoAPIKey is returned when summarization is requested without a key.
var ErrNoAPIKey = errors.New("no Gemini API key configured")

const defaultSummaryModel = "gemini-2.5-flash-lite"

// Summarizer turns a reconciled day into a short natural-language recap via
// the Gemini API. Entirely optional; the engine works without it.
type Summarizer struct {
	apiKey string
	model  string
	logger *slog.Logger
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithSummaryModel overrides the Gemini model name.
func WithSummaryModel(model string) SummarizerOption {
	return func(s *Summarizer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithSummaryLogger sets the summarizer's logger.
func WithSummaryLogger(logger *slog.Logger) SummarizerOption {
	return func(s *Summarizer) { s.logger = logger }
}

// NewSummarizer builds a summarizer. The API key may be empty; Summarize
// then fails fast with ErrNoAPIKey.
func NewSummarizer(apiKey string, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		apiKey: apiKey,
		model:  defaultSummaryModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DaySummary is the structured response requested from the model.
type DaySummary struct {
	Summary     string   `json:"summary"`
	Highlights  []string `json:"highlights,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Summarize produces a recap of the reconciled day.
func (s *Summarizer) Summarize(ctx context.Context, res *DayResult) (*DaySummary, error) {
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  s.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	prompt := buildSummaryPrompt(res)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	temperature := float32(0.3)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  1024,
		ResponseMIMEType: "application/json",
		ResponseSchema:   summarySchema(),
	}

	var resp *genai.GenerateContentResponse
	err = retry.Do(
		func() error {
			var callErr error
			resp, callErr = client.Models.GenerateContent(ctx, s.model, contents, genConfig)
			return callErr
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("retrying summary request", "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty summary response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	var summary DaySummary
	if err := json.Unmarshal([]byte(text.String()), &summary); err != nil {
		return nil, fmt.Errorf("parse summary response: %w", err)
	}
	return &summary, nil
}

func summarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "Two or three sentences recapping how the day actually went versus the plan",
			},
			"highlights": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Short wins worth noting (verified workouts, focused work blocks)",
			},
			"suggestions": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "At most three concrete suggestions for tomorrow",
			},
		},
		Required: []string{"summary"},
	}
}

// buildSummaryPrompt flattens the day into a compact plain-text digest the
// model can reason over. Verdicts are listed in event ID order so the prompt
// is stable across runs (and cacheable upstream).
func buildSummaryPrompt(res *DayResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily plan review for %s.\n\nTimeline (minutes since local midnight):\n", res.Day)
	for _, e := range res.Timeline {
		fmt.Fprintf(&b, "- [%d-%d] %s (%s)", e.Interval.StartMinutes, e.Interval.End(), e.Title, e.Category)
		if e.Description != "" {
			fmt.Fprintf(&b, ": %s", e.Description)
		}
		b.WriteString("\n")
	}

	ids := make([]string, 0, len(res.Verdicts))
	for id := range res.Verdicts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	b.WriteString("\nVerification results:\n")
	for _, id := range ids {
		v := res.Verdicts[id]
		fmt.Fprintf(&b, "- %s: %s (confidence %.2f) %s\n", id, v.Status, v.Confidence, v.Reason)
	}

	b.WriteString("\nWrite an encouraging but honest recap of how the day went compared to the plan.\n")
	return b.String()
}
