package refine

import (
	"context"
	"fmt"

	"whetstone/internal/jsonextract"
	"whetstone/internal/logging"
)

// ScoreResult grades a prompt out of 100 with a per-axis breakdown.
type ScoreResult struct {
	Total        int            `json:"total"`
	Axes         map[string]int `json:"axes"`
	Advice       []string       `json:"advice"`
	UsedFallback bool           `json:"used_fallback"`
}

type scorePayload struct {
	Total  int            `json:"total"`
	Axes   map[string]int `json:"axes"`
	Advice []string       `json:"advice"`
}

var scoreAxes = []string{"clarity", "specificity", "completeness"}

// ScorePrompt grades a prompt on clarity, specificity, and completeness.
func (s *Service) ScorePrompt(ctx context.Context, prompt string) (*ScoreResult, error) {
	if err := checkInput("score", prompt); err != nil {
		return nil, err
	}

	var payload scorePayload
	validate := jsonextract.Into(&payload, func(p *scorePayload) error {
		if p.Total < 0 || p.Total > 100 {
			return fmt.Errorf("total %d out of range", p.Total)
		}
		for _, axis := range scoreAxes {
			value, ok := p.Axes[axis]
			if !ok {
				return fmt.Errorf("missing axis %q", axis)
			}
			if value < 0 || value > 100 {
				return fmt.Errorf("axis %q score %d out of range", axis, value)
			}
		}
		return nil
	})

	result, err := s.generator.GenerateJSON(ctx, "score", fmt.Sprintf(scoreTemplate, prompt), validate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("prompt scored",
		logging.Int("total", payload.Total),
		logging.Bool("used_fallback", result.UsedFallback),
	)
	return &ScoreResult{
		Total:        payload.Total,
		Axes:         payload.Axes,
		Advice:       payload.Advice,
		UsedFallback: result.UsedFallback,
	}, nil
}
