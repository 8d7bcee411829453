package analyzer

import (
	"math"
	"strings"
	"time"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
)

const baseScore = 50

// bioVocabulary is the fixed list of domain terms matched against account bios.
// Matches are reported in vocabulary order, not bio order.
var bioVocabulary = []string{
	"crypto", "blockchain", "solana", "defi", "nft", "web3",
	"bitcoin", "ethereum", "trading", "investor", "developer",
	"founder", "ceo", "project", "token", "dapp",
}

// TrustedSet answers membership queries against the trusted-account set.
// Intersect must be case-insensitive, deduplicate its input and report matches
// in the set's own iteration order.
type TrustedSet interface {
	Intersect(followerHandles []string) (int, []string)
}

// Config carries the tunable analysis thresholds. The spam thresholds mirror
// the historical constants; they are configurable rather than inferred.
type Config struct {
	RepetitionThreshold  float64 // distinct/total ratio below which repetition is flagged
	PromotionalThreshold float64 // promotional share above which promo spam is flagged
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		RepetitionThreshold:  0.5,
		PromotionalThreshold: 0.7,
	}
}

// Analyzer scores accounts. It holds no mutable state and performs no I/O;
// Analyze is a pure function of its inputs.
type Analyzer struct {
	cfg Config
}

func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze computes the full trust analysis for one account. A nil profile
// yields domain.ErrAccountNotFound; empty post or follower samples are valid
// and produce degraded but well-defined results.
func (a *Analyzer) Analyze(profile *domain.AccountProfile, posts []domain.Post, followers []string, trusted TrustedSet, now time.Time) (*domain.Analysis, error) {
	if profile == nil {
		return nil, domain.ErrAccountNotFound
	}

	ageDays := int(now.Sub(profile.CreatedAt).Hours() / 24)

	ratio := math.Inf(1)
	if profile.FollowingCount > 0 {
		ratio = float64(profile.FollowersCount) / float64(profile.FollowingCount)
	}

	keywords := extractBioKeywords(profile.Bio)
	engagement := averageEngagement(posts)
	trustedCount, trustedList := trusted.Intersect(followers)

	analysis := &domain.Analysis{
		AccountID:            profile.ID,
		Handle:               profile.Handle,
		AccountAgeDays:       ageDays,
		FollowerCount:        profile.FollowersCount,
		FollowingCount:       profile.FollowingCount,
		FollowerRatio:        ratio,
		BioLength:            len([]rune(profile.Bio)),
		BioKeywords:          keywords,
		AvgEngagement:        engagement,
		TrustedFollowerCount: trustedCount,
		TrustedFollowers:     trustedList,
		Verified:             profile.Verified,
		AnalyzedAt:           now,
	}

	analysis.Score = score(analysis)
	analysis.RiskFactors = riskFactors(analysis, posts, a.cfg)
	analysis.PositiveIndicators = positiveIndicators(analysis)

	return analysis, nil
}

func extractBioKeywords(bio string) []string {
	if bio == "" {
		return nil
	}
	lower := strings.ToLower(bio)

	var found []string
	for _, kw := range bioVocabulary {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

func averageEngagement(posts []domain.Post) float64 {
	if len(posts) == 0 {
		return 0
	}
	total := 0
	for _, p := range posts {
		total += p.Likes + p.Reposts + p.Replies + p.Quotes
	}
	return float64(total) / float64(len(posts))
}

// score applies the additive trust rules to the derived features. Buckets
// within a group are mutually exclusive; groups combine independently.
func score(a *domain.Analysis) int {
	s := baseScore

	switch {
	case a.AccountAgeDays > 365:
		s += 15
	case a.AccountAgeDays > 180:
		s += 10
	case a.AccountAgeDays > 90:
		s += 5
	case a.AccountAgeDays < 30:
		s -= 20
	}

	switch {
	case a.FollowerRatio >= 0.1 && a.FollowerRatio <= 10:
		s += 10
	case a.FollowerRatio > 100:
		s -= 15
	}

	switch {
	case a.TrustedFollowerCount >= 3:
		s += 25
	case a.TrustedFollowerCount == 2:
		s += 15
	case a.TrustedFollowerCount == 1:
		s += 5
	}

	if a.Verified {
		s += 10
	}

	if a.BioLength > 50 && len(a.BioKeywords) > 0 {
		s += 5
	}

	switch {
	case a.AvgEngagement > 50:
		s += 10
	case a.AvgEngagement > 10:
		s += 5
	}

	return clamp(s, 0, 100)
}

func riskFactors(a *domain.Analysis, posts []domain.Post, cfg Config) []string {
	var risks []string

	if a.AccountAgeDays < 30 {
		risks = append(risks, "Very new account (less than 30 days)")
	}
	if a.FollowerRatio > 50 {
		risks = append(risks, "Suspicious follower/following ratio")
	}
	if a.TrustedFollowerCount == 0 {
		risks = append(risks, "No trusted followers detected")
	}
	if a.BioLength < 20 {
		risks = append(risks, "Minimal bio information")
	}
	if a.AvgEngagement < 1 {
		risks = append(risks, "Very low engagement rates")
	}

	risks = append(risks, spamIndicators(posts, cfg)...)
	return risks
}

func positiveIndicators(a *domain.Analysis) []string {
	var positives []string

	if a.AccountAgeDays > 365 {
		positives = append(positives, "Established account (1+ years)")
	}
	if a.TrustedFollowerCount >= 2 {
		positives = append(positives, trustedFollowersIndicator(a.TrustedFollowerCount))
	}
	if a.Verified {
		positives = append(positives, "Verified account")
	}
	if a.FollowerRatio >= 0.1 && a.FollowerRatio <= 10 {
		positives = append(positives, "Healthy follower/following ratio")
	}
	if len(a.BioKeywords) > 0 {
		positives = append(positives, "Relevant bio keywords present")
	}
	if a.AvgEngagement > 10 {
		positives = append(positives, "Good engagement rates")
	}

	return positives
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
