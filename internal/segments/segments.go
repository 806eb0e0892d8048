// Package segments resolves client segment membership for audience matching.
//
// The engine only asks IsClientInSegment and must never block, so membership
// is resolved once per request, before evaluation, into a Set. Resolvers
// look up only the segments the rule snapshot actually references.
package segments

import (
	"context"
	"sort"

	"github.com/solatis/pricekeeper/internal/types"
)

// Resolver produces the memberships of clientID among segmentIDs.
type Resolver interface {
	Resolve(ctx context.Context, clientID string, segmentIDs []string) Set
}

// Set is a static membership table. The zero value is an empty set.
type Set struct {
	members map[string]map[string]struct{} // segment -> clients
}

var _ types.SegmentLookup = Set{}
var _ Resolver = Set{}

// NewSet creates an empty set.
func NewSet() Set {
	return Set{members: make(map[string]map[string]struct{})}
}

// Add records clientIDs as members of segmentID.
// The table is allocated on first use, so Add works on a zero Set.
func (s *Set) Add(segmentID string, clientIDs ...string) {
	if s.members == nil {
		s.members = make(map[string]map[string]struct{})
	}
	clients, ok := s.members[segmentID]
	if !ok {
		clients = make(map[string]struct{}, len(clientIDs))
		s.members[segmentID] = clients
	}
	for _, id := range clientIDs {
		clients[id] = struct{}{}
	}
}

// IsClientInSegment implements types.SegmentLookup.
func (s Set) IsClientInSegment(clientID, segmentID string) bool {
	_, ok := s.members[segmentID][clientID]
	return ok
}

// Len returns the number of (segment, client) memberships.
func (s Set) Len() int {
	n := 0
	for _, clients := range s.members {
		n += len(clients)
	}
	return n
}

// Resolve returns s itself; a static set already holds every membership.
func (s Set) Resolve(context.Context, string, []string) Set {
	return s
}

// ReferencedSegments returns the sorted, distinct segment ids targeted by
// active rules.
func ReferencedSegments(rules []types.PricingRule) []string {
	seen := make(map[string]struct{})
	for i := range rules {
		if !rules[i].IsActive {
			continue
		}
		if seg, ok := rules[i].Audience.(types.Segment); ok && seg.SegmentID != "" {
			seen[seg.SegmentID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
