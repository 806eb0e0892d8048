package rules

import (
	"testing"

	"github.com/solatis/pricekeeper/internal/types"
)

// memberships is a static SegmentLookup keyed by segment then client.
type memberships map[string]map[string]bool

func (m memberships) IsClientInSegment(clientID, segmentID string) bool {
	return m[segmentID][clientID]
}

func TestAudienceApplies(t *testing.T) {
	segments := memberships{"vip": {"c1": true}}

	tests := []struct {
		name     string
		audience types.Audience
		clientID string
		lookup   types.SegmentLookup
		want     bool
	}{
		{"all with client", types.AllClients{}, "c1", segments, true},
		{"all anonymous", types.AllClients{}, "", segments, true},
		{"nil audience", nil, "", nil, true},
		{"specific listed", types.SpecificClients{ClientIDs: []string{"c1", "c2"}}, "c2", segments, true},
		{"specific unlisted", types.SpecificClients{ClientIDs: []string{"c1"}}, "c3", segments, false},
		{"specific anonymous", types.SpecificClients{ClientIDs: []string{""}}, "", segments, false},
		{"segment member", types.Segment{SegmentID: "vip"}, "c1", segments, true},
		{"segment non member", types.Segment{SegmentID: "vip"}, "c2", segments, false},
		{"segment anonymous", types.Segment{SegmentID: "vip"}, "", segments, false},
		{"segment without lookup", types.Segment{SegmentID: "vip"}, "c1", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := types.EvaluationContext{ClientID: tt.clientID}
			if got := AudienceApplies(tt.audience, ctx, tt.lookup); got != tt.want {
				t.Errorf("AudienceApplies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAudienceApplies_EveryKindDispatched(t *testing.T) {
	samples := map[types.AudienceKind]types.Audience{
		types.AudienceAll:             types.AllClients{},
		types.AudienceSegment:         types.Segment{SegmentID: "vip"},
		types.AudienceSpecificClients: types.SpecificClients{ClientIDs: []string{"c1"}},
	}
	ctx := types.EvaluationContext{ClientID: "c1"}
	lookup := memberships{"vip": {"c1": true}}

	for _, kind := range types.AllAudienceKinds {
		aud, ok := samples[kind]
		if !ok {
			t.Fatalf("no sample audience for kind %v", kind)
		}
		if !AudienceApplies(aud, ctx, lookup) {
			t.Errorf("AudienceApplies(%v sample) = false, want true", kind)
		}
		if err := validateAudience(aud); err != nil {
			t.Errorf("validateAudience(%v sample) error = %v, want nil", kind, err)
		}
	}
}
