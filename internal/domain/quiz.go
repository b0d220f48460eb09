package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// pointTolerance is the allowed drift between totalMarks and the sum of
// per-question points.
const pointTolerance = 0.01

// Question is a single multiple-choice question inside a draft.
// CorrectOptionIndex and Point are pointers so that an absent field can be
// told apart from a zero value; a missing Point defaults to 1.
type Question struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correctOptionIndex"`
	Point              *float64 `json:"point,omitempty"`
}

// QuizDraft is an in-memory, not-yet-persisted quiz document as assembled by
// the agent. A revision always supplies the complete document; there are no
// partial patch semantics.
type QuizDraft struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	TotalMarks      float64    `json:"totalMarks"`
	DurationMinutes float64    `json:"durationMinutes"`
	StartAt         string     `json:"startAt"`
	EndAt           string     `json:"endAt"`
	Questions       []Question `json:"questions"`
	ModuleIDs       []string   `json:"module_ids,omitempty"`
}

// ValidationResult is produced fresh by every Validate call and never
// mutated in place. Warnings never affect Valid.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks a draft against the full rule battery and collects every
// violation instead of stopping at the first one. It is a pure function of
// its input.
func Validate(draft *QuizDraft) *ValidationResult {
	result := &ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	if strings.TrimSpace(draft.Title) == "" {
		result.Errors = append(result.Errors, "title is required and cannot be empty")
	}

	if draft.TotalMarks <= 0 {
		result.Errors = append(result.Errors, "totalMarks must be a positive number")
	}

	if draft.DurationMinutes <= 0 {
		result.Errors = append(result.Errors, "durationMinutes must be a positive number")
	}

	if draft.StartAt == "" {
		result.Errors = append(result.Errors, "startAt is required")
	}

	if draft.EndAt == "" {
		result.Errors = append(result.Errors, "endAt is required")
	}

	if len(draft.Questions) == 0 {
		result.Errors = append(result.Errors, "questions array cannot be empty")
	} else {
		totalPoints := 0.0
		seenTexts := make(map[string]struct{}, len(draft.Questions))

		for idx, question := range draft.Questions {
			if strings.TrimSpace(question.Text) == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].text is required and cannot be empty", idx))
			} else if _, dup := seenTexts[question.Text]; dup {
				result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].text is duplicate", idx))
			} else {
				seenTexts[question.Text] = struct{}{}
			}

			if len(question.Options) < 2 {
				result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].options must have at least 2 options", idx))
			} else if len(question.Options) < 4 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("questions[%d] has only %d options (4 recommended)", idx, len(question.Options)))
			}

			for optIdx, option := range question.Options {
				if strings.TrimSpace(option) == "" {
					result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].options[%d] cannot be empty", idx, optIdx))
				}
			}

			if question.CorrectOptionIndex == nil {
				result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].correctOptionIndex must be a number", idx))
			} else if *question.CorrectOptionIndex < 0 || *question.CorrectOptionIndex >= len(question.Options) {
				result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].correctOptionIndex (%d) is out of bounds for %d options",
					idx, *question.CorrectOptionIndex, len(question.Options)))
			}

			// Point defaults to 1 when absent.
			points := 1.0
			if question.Point != nil {
				points = *question.Point
			}
			if points <= 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("questions[%d].point must be a positive number", idx))
			} else {
				totalPoints += points
			}
		}

		if draft.TotalMarks > 0 && math.Abs(totalPoints-draft.TotalMarks) > pointTolerance {
			result.Errors = append(result.Errors, fmt.Sprintf("Sum of question points (%s) does not match totalMarks (%s)",
				formatNumber(totalPoints), formatNumber(draft.TotalMarks)))
		}
	}

	if draft.StartAt != "" && draft.EndAt != "" {
		start, startErr := ParseTimestamp(draft.StartAt)
		end, endErr := ParseTimestamp(draft.EndAt)
		switch {
		case startErr != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid date format: %v", startErr))
		case endErr != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid date format: %v", endErr))
		case !start.Before(end):
			result.Errors = append(result.Errors, "startAt must be before endAt")
		}
	}

	if strings.TrimSpace(draft.Description) == "" {
		result.Warnings = append(result.Warnings, "description is empty (recommended to add context for students)")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ParseTimestamp accepts ISO-8601 timestamps with a Z suffix or numeric
// offset, falling back to a bare local form without offset.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

// formatNumber renders 10 as "10" and 9.5 as "9.5" so that messages read
// the way educators typed the numbers.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
