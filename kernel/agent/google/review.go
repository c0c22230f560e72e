package google

import (
	"strconv"
	"strings"
)

// parseReview splits a review response into feedback and a [0,1] score,
// expecting the "SCORE: <float>" trailer requested by reviewPromptPrefix.
// Falls back to score 0.5 if no parseable trailer is found.
func parseReview(text string) (string, float64) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	score := 0.5
	feedback := text
	if n := len(lines); n > 0 {
		last := strings.TrimSpace(lines[n-1])
		if rest, ok := strings.CutPrefix(last, "SCORE:"); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64); err == nil {
				score = v
				feedback = strings.TrimSpace(strings.Join(lines[:n-1], "\n"))
			}
		}
	}
	return feedback, score
}
