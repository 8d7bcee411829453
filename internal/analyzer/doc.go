// Package analyzer implements the trust scoring engine.
//
// Analyze is a pure function of (profile, posts, follower sample, trusted set):
// it derives the numeric features, applies the additive score rules, and
// collects risk factors and positive indicators. Report rendering maps the
// score to discrete trust tiers; the 80/60/40 bands are part of the contract.
package analyzer
