package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

// SubmitAnalysisUseCase accepts an analysis request and hands it to the queue
// for asynchronous processing.
type SubmitAnalysisUseCase struct {
	queue ports.AnalysisQueue
}

func NewSubmitAnalysisUseCase(queue ports.AnalysisQueue) *SubmitAnalysisUseCase {
	return &SubmitAnalysisUseCase{queue: queue}
}

// Submit validates the identifier, publishes an analyze request, and returns
// the request ID the caller can correlate results with.
func (uc *SubmitAnalysisUseCase) Submit(ctx context.Context, identifier, filingTypeHint string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "submit analysis",
			errors.New("identifier is required"))
	}

	req := domain.AnalyzeRequest{
		RequestID:   uuid.NewString(),
		Identifier:  identifier,
		FilingType:  strings.TrimSpace(filingTypeHint),
		RequestedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishAnalyzeRequest(ctx, req); err != nil {
		return "", fmt.Errorf("publish analyze request: %w", err)
	}
	return req.RequestID, nil
}
