package rules

import "github.com/solatis/pricekeeper/internal/types"

// AudienceApplies reports whether the request's client is in aud.
// A nil audience targets everyone. Segment membership is delegated to
// segments; a nil lookup knows no memberships. Anonymous requests only
// match AllClients.
func AudienceApplies(aud types.Audience, ctx types.EvaluationContext, segments types.SegmentLookup) bool {
	switch a := aud.(type) {
	case nil:
		return true
	case types.AllClients:
		return true
	case types.SpecificClients:
		return ctx.HasClient() && containsString(a.ClientIDs, ctx.ClientID)
	case types.Segment:
		if !ctx.HasClient() || segments == nil {
			return false
		}
		return segments.IsClientInSegment(ctx.ClientID, a.SegmentID)
	default:
		return false
	}
}
