// Package classifier asks a generative language model to sort exam
// questions into syllabus units.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbaille/pyq/internal/domain"
)

// Service is a text-in, text-out language model
type Service interface {
	Generate(ctx context.Context, instruction string) (string, error)
}

// ServiceFunc adapts a function to Service
type ServiceFunc func(ctx context.Context, instruction string) (string, error)

// Generate calls f
func (f ServiceFunc) Generate(ctx context.Context, instruction string) (string, error) {
	return f(ctx, instruction)
}

// Classify sends req to svc once and returns the raw model output. Every
// failure, including context expiry, wraps domain.ErrClassificationService.
func Classify(ctx context.Context, svc Service, req Request) (string, error) {
	raw, err := svc.Generate(ctx, req.Instruction())
	if err == nil {
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out: %w", domain.ErrClassificationService, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrClassificationService, err)
	}
	return raw, nil
}

// Options configures a hosted model backend
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// New builds the backend named by opts.Provider
func New(opts Options) (Service, error) {
	switch opts.Provider {
	case "", ProviderGemini:
		return NewGemini(opts)
	case ProviderAnthropic:
		return NewAnthropic(opts)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", opts.Provider)
	}
}
