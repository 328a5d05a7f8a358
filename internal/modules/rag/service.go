package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docspace/core/internal/config"
	"github.com/docspace/core/internal/modules/indexer"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

const (
	defaultModel   = "gpt-4o-mini"
	maxContextHits = 5
)

// Retriever supplies grounding passages for a question. Satisfied by the
// document service (index search with SQL fallback).
type Retriever interface {
	Search(ctx context.Context, orgID, q string, limit int) ([]indexer.Hit, string, error)
}

// Service answers questions grounded on an organization's documents via an
// OpenAI-compatible chat-completion provider.
type Service struct {
	cfg       config.AIConfig
	retriever Retriever
	logger    *zap.Logger
}

// ServiceOption configures a rag Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the rag service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("RagService")
		}
	}
}

func NewService(cfg config.AIConfig, retriever Retriever, opts ...ServiceOption) *Service {
	s := &Service{cfg: cfg, retriever: retriever, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Enabled reports whether an AI provider is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Enable && strings.TrimSpace(s.cfg.APIKey) != ""
}

// Answer is the result of one grounded question.
type Answer struct {
	Answer  string        `json:"answer"`
	Sources []indexer.Hit `json:"sources"`
}

// Ask retrieves the top matching passages for the question and has the model
// answer from them alone.
func (s *Service) Ask(ctx context.Context, orgID, question string) (*Answer, error) {
	if !s.Enabled() {
		return nil, errors.New("AI provider is not configured")
	}

	hits, servedBy, err := s.retriever.Search(ctx, orgID, question, maxContextHits)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	s.logger.Debug("context retrieved",
		zap.String("org_id", orgID),
		zap.Int("hits", len(hits)),
		zap.String("served_by", servedBy))

	answer, err := s.complete(ctx, buildPrompt(question, hits))
	if err != nil {
		return nil, err
	}
	return &Answer{Answer: answer, Sources: hits}, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(s.cfg.APIKey),
		openaioption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(s.cfg.Endpoint); endpoint != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	client := openaiclient.NewClient(opts...)

	model := strings.TrimSpace(s.cfg.Model)
	if model == "" {
		model = defaultModel
	}

	resp, err := client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.SystemMessage(systemPrompt),
			openaiclient.UserMessage(prompt),
		},
		MaxTokens: openaiclient.Int(600),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from AI provider")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("empty response from AI provider")
	}
	return answer, nil
}

const systemPrompt = "You are a documentation assistant. Answer strictly from the provided passages. " +
	"If the passages do not contain the answer, say so instead of guessing. Cite passage titles."

func buildPrompt(question string, hits []indexer.Hit) string {
	var b strings.Builder
	if len(hits) == 0 {
		b.WriteString("No passages matched the question.\n\n")
	} else {
		b.WriteString("Passages:\n\n")
		for i, h := range hits {
			fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, h.Title, h.Snippet)
		}
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
