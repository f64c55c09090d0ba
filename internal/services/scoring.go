package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nlwealth/advisorforms/internal/models"
)

// DefaultScoreThresholds are the ascending band boundaries separating the
// seven risk profiles. A total below Thresholds[i] falls in profile i; a
// total at or above the last threshold is the top profile. The boundaries
// are fixed constants rather than values derived from template data, since
// the template's point scale evolves independently of the bands.
var DefaultScoreThresholds = []int{52, 84, 119, 204, 239, 270}

// RiskScore computes the aggregate score for a set of answers against a
// template and maps it to a profile label. Pure: no clock, no randomness.
// A nil template triggers the fallback calculation.
func RiskScore(t *models.Template, answers map[string]string, thresholds []int) (int, string) {
	var score int
	if t == nil {
		score = fallbackScore(answers)
	} else {
		score = templateScore(t, answers)
	}
	return score, RiskProfile(score, thresholds)
}

// templateScore walks the template's questions in stored order, resolves each
// question's answer field, and sums the selected options' point values.
// Unanswered questions and answer ids that match no option contribute zero;
// partial or legacy answer sets never fail scoring.
func templateScore(t *models.Template, answers map[string]string) int {
	score := 0
	for i, q := range t.Questions {
		answerID, ok := answers[answerKey(q, i)]
		if !ok || answerID == "" {
			continue
		}
		for _, opt := range q.Options {
			if opt.ID == answerID {
				score += opt.Value
				break
			}
		}
	}
	return score
}

// answerKey derives the answer field for a question from the number embedded
// in its id ("Q3" -> "question3"), falling back to the question's 1-based
// position when the id carries no digits. Keying off the id keeps stored
// answers stable across reorderings as long as ids are stable.
func answerKey(q models.Question, pos int) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, q.ID)
	if digits == "" {
		return fmt.Sprintf("question%d", pos+1)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return fmt.Sprintf("question%d", pos+1)
	}
	return fmt.Sprintf("question%d", n)
}

// fallbackScore sums every numeric-looking value across the answers directly.
// Used when no template is configured so scoring never hard-fails.
func fallbackScore(answers map[string]string) int {
	score := 0
	for _, v := range answers {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			score += n
		}
	}
	return score
}

// RiskProfile maps a total score to one of the seven profile labels. Bands
// are inclusive-exclusive: a score equal to a threshold lands in the higher
// bucket. Invalid threshold slices fall back to the defaults.
func RiskProfile(score int, thresholds []int) string {
	if len(thresholds) != len(models.RiskProfiles)-1 {
		thresholds = DefaultScoreThresholds
	}
	for i, limit := range thresholds {
		if score < limit {
			return models.RiskProfiles[i]
		}
	}
	return models.RiskProfiles[len(models.RiskProfiles)-1]
}
