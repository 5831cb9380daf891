package refine

import (
	"context"
	"fmt"

	"whetstone/internal/jsonextract"
	"whetstone/internal/logging"
)

// ClassifyResult names the dominant format of a piece of text.
type ClassifyResult struct {
	Format       string  `json:"format"`
	Confidence   float64 `json:"confidence"`
	UsedFallback bool    `json:"used_fallback"`
}

type classifyPayload struct {
	Format     string  `json:"format"`
	Confidence float64 `json:"confidence"`
}

var knownFormats = map[string]bool{
	"json":     true,
	"markdown": true,
	"code":     true,
	"prose":    true,
}

// ClassifyFormat labels text as json, markdown, code, or prose.
func (s *Service) ClassifyFormat(ctx context.Context, text string) (*ClassifyResult, error) {
	if err := checkInput("classify", text); err != nil {
		return nil, err
	}

	var payload classifyPayload
	validate := jsonextract.Into(&payload, func(p *classifyPayload) error {
		if !knownFormats[p.Format] {
			return fmt.Errorf("unknown format %q", p.Format)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("confidence %g out of range", p.Confidence)
		}
		return nil
	})

	result, err := s.generator.GenerateJSON(ctx, "classify", fmt.Sprintf(classifyTemplate, text), validate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("format classified",
		logging.String("format", payload.Format),
		logging.Float64("confidence", payload.Confidence),
		logging.Bool("used_fallback", result.UsedFallback),
	)
	return &ClassifyResult{
		Format:       payload.Format,
		Confidence:   payload.Confidence,
		UsedFallback: result.UsedFallback,
	}, nil
}
