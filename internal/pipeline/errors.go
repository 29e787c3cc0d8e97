package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbaille/pyq/internal/domain"
)

// Kind classifies why a run failed
type Kind string

const (
	KindPrecondition          Kind = "precondition"
	KindExtraction            Kind = "extraction"
	KindClassificationService Kind = "classification_service"
	KindNoStructuredBlock     Kind = "no_structured_block"
	KindMalformedResult       Kind = "malformed_result"
	KindCanceled              Kind = "canceled"
)

// InputFault reports whether the caller must change its input before
// retrying. Other kinds may succeed on a plain retry.
func (k Kind) InputFault() bool {
	return k == KindPrecondition || k == KindExtraction
}

// Error is the single failure a run reports
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is a short explanation suitable for end users
func (e *Error) Message() string {
	switch e.Kind {
	case KindPrecondition:
		return "Invalid request: " + e.Err.Error()
	case KindExtraction:
		return "Could not read the uploaded papers."
	case KindClassificationService:
		return "The classification service failed. Please try again later."
	case KindNoStructuredBlock:
		return "No valid JSON object found in the AI response."
	case KindMalformedResult:
		return "Failed to parse the AI response."
	case KindCanceled:
		return "The request was canceled."
	default:
		return "Failed to organize the papers."
	}
}

// kindOf maps err to a Kind, falling back to the kind owned by the stage
// that failed.
func kindOf(err error, at Stage) Kind {
	switch {
	case errors.Is(err, domain.ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, domain.ErrExtraction):
		return KindExtraction
	case errors.Is(err, domain.ErrClassificationService):
		return KindClassificationService
	case errors.Is(err, domain.ErrNoStructuredBlock):
		return KindNoStructuredBlock
	case errors.Is(err, domain.ErrMalformedResult):
		return KindMalformedResult
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	switch at {
	case StageExtracting:
		return KindExtraction
	case StageClassifying:
		return KindClassificationService
	case StageParsing:
		return KindMalformedResult
	default:
		return KindPrecondition
	}
}
