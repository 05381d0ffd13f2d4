package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/csheth/paperdesk/internal/llm"
)

// ReviewResult is a structured critique of a paper.
type ReviewResult struct {
	Summary    string   `json:"summary" yaml:"summary"`
	Strengths  []string `json:"strengths" yaml:"strengths"`
	Weaknesses []string `json:"weaknesses" yaml:"weaknesses"`
	Score      float64  `json:"score" yaml:"score"`
}

const reviewFailureWeakness = "Service unavailable or API Error"

// FailedReview is the degraded result reported when a review cannot be produced.
func FailedReview() ReviewResult {
	return ReviewResult{
		Summary:    "Error generating review.",
		Strengths:  []string{},
		Weaknesses: []string{reviewFailureWeakness},
		Score:      0,
	}
}

// Failed reports whether r is the degraded sentinel rather than a real review.
func (r ReviewResult) Failed() bool {
	return r.Score == 0 && len(r.Strengths) == 0 &&
		len(r.Weaknesses) == 1 && r.Weaknesses[0] == reviewFailureWeakness
}

var reviewSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"summary": {Type: llm.TypeString, Description: "A brief summary of the paper's contribution."},
		"strengths": {
			Type:        llm.TypeArray,
			Items:       &llm.Schema{Type: llm.TypeString},
			Description: "List of key strengths.",
		},
		"weaknesses": {
			Type:        llm.TypeArray,
			Items:       &llm.Schema{Type: llm.TypeString},
			Description: "List of potential weaknesses or areas for improvement.",
		},
		"score": {Type: llm.TypeNumber, Description: "A quality score from 1 to 10."},
	},
	Required: []string{"summary", "strengths", "weaknesses", "score"},
}

// parseReview accepts the raw reply or the outermost {...} inside it, and
// requires every field with the right JSON type.
func parseReview(raw string) (ReviewResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ReviewResult{}, errors.New("empty review response")
	}
	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start && (start > 0 || end < len(raw)-1) {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	var lastErr error
	for _, candidate := range candidates {
		result, err := decodeReview([]byte(candidate))
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return ReviewResult{}, lastErr
}

func decodeReview(data []byte) (ReviewResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ReviewResult{}, fmt.Errorf("review is not a JSON object: %w", err)
	}
	var result ReviewResult
	if err := decodeField(fields, "summary", &result.Summary); err != nil {
		return ReviewResult{}, err
	}
	if err := decodeField(fields, "strengths", &result.Strengths); err != nil {
		return ReviewResult{}, err
	}
	if err := decodeField(fields, "weaknesses", &result.Weaknesses); err != nil {
		return ReviewResult{}, err
	}
	if err := decodeField(fields, "score", &result.Score); err != nil {
		return ReviewResult{}, err
	}
	if math.IsNaN(result.Score) || math.IsInf(result.Score, 0) {
		return ReviewResult{}, errors.New("review score is not finite")
	}
	return result, nil
}

// decodeField rejects missing keys and explicit nulls, which json.Unmarshal
// would otherwise accept silently.
func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("review is missing %q", key)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("review field %q is null", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("review field %q has the wrong type: %w", key, err)
	}
	return nil
}
