// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Extractor implements ai.ExtractionService using an OpenAI-compatible chat
// API via langchaingo. Safe for concurrent use.
type Extractor struct {
	client llms.Model
	config *ai.Config
	cache  ai.ResponseCache
	logger *slog.Logger
}

var _ ai.ExtractionService = (*Extractor)(nil)
var _ ai.Completer = (*Extractor)(nil)

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache attaches a response cache. Cached responses that still parse
// are returned without a service call.
func WithCache(cache ai.ResponseCache) Option {
	return func(e *Extractor) { e.cache = cache }
}

// NewExtractor creates an extraction client from the given configuration.
// The config is validated and normalized before use.
func NewExtractor(config *ai.Config, opts ...Option) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, ai.AuthFailure(err)
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, ai.AuthFailure(err)
	}

	e := &Extractor{
		client: client,
		config: config,
		logger: slog.Default().With("component", "openai-extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Complete sends one raw request and returns the response text. Failures
// are classified into the ai error taxonomy.
func (e *Extractor) Complete(ctx context.Context, req ai.Request) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.config.RequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
		},
	}

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return "", classify(err)
	}
	if len(response.Choices) < 1 || strings.TrimSpace(response.Choices[0].Content) == "" {
		return "", ai.Malformed(errors.New("no choices in response"))
	}
	return response.Choices[0].Content, nil
}

// AnalyzeChapterPair implements ai.ExtractionService.
func (e *Extractor) AnalyzeChapterPair(ctx context.Context, a, b core.Chapter) (*ai.ChapterRelation, error) {
	var rel *ai.ChapterRelation
	err := e.run(ctx, e.request(chapterSystemPrompt, chapterPairPrompt(a, b)), func(text string) error {
		var parseErr error
		rel, parseErr = ai.ParseChapterRelation(text)
		return parseErr
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// ExtractSection implements ai.ExtractionService.
func (e *Extractor) ExtractSection(ctx context.Context, section core.Section, budget ai.NodeBudget) (*ai.SectionExtraction, error) {
	var ex *ai.SectionExtraction
	err := e.run(ctx, e.request(sectionSystemPrompt, sectionPrompt(section, budget)), func(text string) error {
		var parseErr error
		ex, parseErr = ai.ParseSectionExtraction(text)
		return parseErr
	})
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// AnalyzeApplicationPair implements ai.ExtractionService.
func (e *Extractor) AnalyzeApplicationPair(ctx context.Context, a, b core.Node) (*ai.ConnectionEvidence, error) {
	var ev *ai.ConnectionEvidence
	err := e.run(ctx, e.request(connectionSystemPrompt, connectionPrompt(a, b)), func(text string) error {
		var parseErr error
		ev, parseErr = ai.ParseConnectionEvidence(text)
		return parseErr
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (e *Extractor) request(system, prompt string) ai.Request {
	return ai.Request{
		System:      system,
		Prompt:      prompt,
		Temperature: e.config.Temperature,
		MaxTokens:   e.config.MaxTokens,
		Timeout:     e.config.RequestTimeout,
	}
}

// run answers req from the cache when a cached response still parses,
// otherwise calls the service and caches the response after parse succeeds.
func (e *Extractor) run(ctx context.Context, req ai.Request, parse func(string) error) error {
	key := cacheKey(req)
	if e.cache != nil {
		if cached, ok, err := e.cache.Get(key); err != nil {
			e.logger.Warn("response cache read failed", "err", err)
		} else if ok {
			if parseErr := parse(cached); parseErr == nil {
				e.logger.Debug("response cache hit")
				return nil
			}
			e.logger.Warn("cached response no longer parses, refetching")
		}
	}

	text, err := e.Complete(ctx, req)
	if err != nil {
		return err
	}
	if err := parse(text); err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.Put(key, text); err != nil {
			e.logger.Warn("response cache write failed", "err", err)
		}
	}
	return nil
}

func cacheKey(req ai.Request) uint64 {
	return core.HashContent(req.System + "\x00" + req.Prompt)
}

// classify maps transport-level failures into the ai error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ai.Timeout(err)
	case errors.Is(err, context.Canceled):
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return ai.RateLimited(err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key"):
		return ai.AuthFailure(err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return ai.Timeout(err)
	}
	// Unclassified transport errors stay unwrapped; the retry controller
	// treats them as transient.
	return err
}
