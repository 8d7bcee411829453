package analyzer

import (
	"fmt"
	"strings"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
)

// Trust tier boundaries. These bands are part of the public report contract.
const (
	tierHighTrust     = 80
	tierModerateTrust = 60
	tierLowTrust      = 40
)

const (
	maxReportRisks     = 3
	maxReportPositives = 2
)

// TrustTier maps a score to its display tier.
func TrustTier(score int) string {
	switch {
	case score >= tierHighTrust:
		return "HIGH TRUST"
	case score >= tierModerateTrust:
		return "MODERATE TRUST"
	case score >= tierLowTrust:
		return "LOW TRUST"
	default:
		return "HIGH RISK"
	}
}

func trustedFollowersIndicator(count int) string {
	return fmt.Sprintf("Followed by %d trusted accounts", count)
}

// FormatReport renders an analysis as a reply-sized report. Risk factors and
// positive indicators are truncated to keep the report within post limits.
func FormatReport(a *domain.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "RUGGUARD ANALYSIS: @%s\n", a.Handle)
	fmt.Fprintf(&b, "Trust Level: %s (%d/100)\n\n", TrustTier(a.Score), a.Score)

	fmt.Fprintf(&b, "Account Age: %d days\n", a.AccountAgeDays)
	fmt.Fprintf(&b, "Followers: %d\n", a.FollowerCount)
	fmt.Fprintf(&b, "Trusted Connections: %d\n", a.TrustedFollowerCount)

	if len(a.RiskFactors) > 0 {
		b.WriteString("\nRisk Factors:\n")
		for _, risk := range truncate(a.RiskFactors, maxReportRisks) {
			fmt.Fprintf(&b, "- %s\n", risk)
		}
	}

	if len(a.PositiveIndicators) > 0 {
		b.WriteString("\nPositive Signs:\n")
		for _, positive := range truncate(a.PositiveIndicators, maxReportPositives) {
			fmt.Fprintf(&b, "- %s\n", positive)
		}
	}

	b.WriteString("\nAnalysis by @projectrugguard")
	return b.String()
}

func truncate(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
