package analysis

import (
	"alcyxob/fitness-analysis/internal/domain"
	"context"
	"fmt"
)

// Result is the structured output of one video analysis run.
type Result struct {
	VideoTitle    string                    `json:"video_title"`
	Sport         string                    `json:"sport,omitempty"`
	TotalDuration float64                   `json:"total_duration"`
	Exercises     []domain.AnalyzedExercise `json:"exercises"`
}

// Analyzer extracts exercise candidates from a video. Implementations are
// external collaborators; callers bound the call with a context deadline
// and must not retry automatically.
type Analyzer interface {
	AnalyzeVideo(ctx context.Context, videoURL string) (*Result, error)
}

// UpstreamError wraps any failure of the analyzer call so callers can tell
// an upstream fault apart from their own validation or store errors.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("video analysis failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
