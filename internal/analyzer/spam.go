package analyzer

import (
	"strings"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
)

// promotionalTerms are matched case-insensitively against post texts to detect
// shill content.
var promotionalTerms = []string{"buy", "sell", "pump", "moon", "gem", "x100"}

// spamIndicators inspects the post sample for spam patterns. Both checks are
// no-ops on an empty sample.
func spamIndicators(posts []domain.Post, cfg Config) []string {
	if len(posts) == 0 {
		return nil
	}

	var indicators []string

	distinct := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		distinct[p.Text] = struct{}{}
	}
	if float64(len(distinct)) < float64(len(posts))*cfg.RepetitionThreshold {
		indicators = append(indicators, "High content repetition detected")
	}

	promo := 0
	for _, p := range posts {
		lower := strings.ToLower(p.Text)
		for _, term := range promotionalTerms {
			if strings.Contains(lower, term) {
				promo++
				break
			}
		}
	}
	if float64(promo) > float64(len(posts))*cfg.PromotionalThreshold {
		indicators = append(indicators, "Excessive promotional content")
	}

	return indicators
}
