package entity

// MatchTier labels the fallback level that produced a provider match.
type MatchTier string

const (
	MatchTierExact    MatchTier = "exact"    // same region, same category
	MatchTierRegion   MatchTier = "region"   // same region, any category
	MatchTierCategory MatchTier = "category" // any region, same category
	MatchTierAny      MatchTier = "any"
	MatchTierNone     MatchTier = "none"
)

// MatchResult is the outcome of provider matching. A miss is a result with
// TierNone and no provider, not an error.
type MatchResult struct {
	Provider *ProviderProfile
	Tier     MatchTier
	Message  string
}

func (r *MatchResult) Matched() bool {
	return r != nil && r.Provider != nil
}
