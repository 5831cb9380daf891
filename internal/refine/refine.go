package refine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"whetstone/internal/jsonextract"
	"whetstone/internal/llm"
	"whetstone/internal/logging"
	"whetstone/internal/services"
)

// Generator produces structured payloads from prompts. *llm.Client satisfies
// it; tests substitute a scripted fake.
type Generator interface {
	GenerateJSON(ctx context.Context, label, prompt string, validate jsonextract.Validate, opts ...llm.StructuredOption) (llm.StructuredResult, error)
}

// Service exposes the derived-artifact operations: prompt refinement,
// quality scoring, and format classification.
type Service struct {
	generator Generator
	logger    *slog.Logger
}

// NewService builds the operations service on top of a generator.
func NewService(generator Generator, logger *slog.Logger) *Service {
	return &Service{
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "refine"),
	}
}

// RefineResult is a rewritten prompt plus the changes the model reports
// having made.
type RefineResult struct {
	Refined      string   `json:"refined"`
	Notes        []string `json:"notes"`
	UsedFallback bool     `json:"used_fallback"`
}

type refinePayload struct {
	Refined string   `json:"refined"`
	Notes   []string `json:"notes"`
}

// RefinePrompt rewrites a rough prompt into a clearer, more specific one.
func (s *Service) RefinePrompt(ctx context.Context, prompt string) (*RefineResult, error) {
	if err := checkInput("refine", prompt); err != nil {
		return nil, err
	}

	var payload refinePayload
	validate := jsonextract.Into(&payload, func(p *refinePayload) error {
		if strings.TrimSpace(p.Refined) == "" {
			return fmt.Errorf("refined prompt is empty")
		}
		return nil
	})

	result, err := s.generator.GenerateJSON(ctx, "refine", fmt.Sprintf(refineTemplate, prompt), validate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("prompt refined",
		logging.Int("input_chars", len(prompt)),
		logging.Int("output_chars", len(payload.Refined)),
		logging.Bool("used_fallback", result.UsedFallback),
	)
	return &RefineResult{
		Refined:      strings.TrimSpace(payload.Refined),
		Notes:        payload.Notes,
		UsedFallback: result.UsedFallback,
	}, nil
}

func checkInput(operation, text string) error {
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrInvalidInput, "refine", operation, "text must not be empty", nil)
	}
	return nil
}
