package extract

import (
	"encoding/json"
	"sort"

	"braces.dev/errtrace"
)

// Statistics summarizes a response by entity and event type.
type Statistics struct {
	Entities      map[string]TypeStats `json:"entities"`
	Events        map[string]TypeStats `json:"events"`
	TotalEntities int                  `json:"total_entities"`
	TotalEvents   int                  `json:"total_events"`
}

func (s *Statistics) empty() bool {
	return len(s.Entities) == 0 && len(s.Events) == 0 &&
		s.TotalEntities == 0 && s.TotalEvents == 0
}

// TypeStats counts the items of one type.
type TypeStats struct {
	Count int `json:"count"`

	// Items holds the matched texts or triggers, if known.
	Items []string `json:"items,omitempty"`
}

// UnmarshalJSON accepts the item list under "items",
// "entities" or "events".
func (ts *TypeStats) UnmarshalJSON(b []byte) error {
	var v struct {
		Count    int      `json:"count"`
		Items    []string `json:"items"`
		Entities []string `json:"entities"`
		Events   []string `json:"events"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return errtrace.Wrap(err)
	}

	ts.Count = v.Count
	switch {
	case v.Items != nil:
		ts.Items = v.Items
	case v.Entities != nil:
		ts.Items = v.Entities
	default:
		ts.Items = v.Events
	}
	return nil
}

// TypeCount is one row of a statistics table.
type TypeCount struct {
	Type  string
	Count int
}

// EntityCounts lists entity types by descending count,
// breaking ties by name.
func (s *Statistics) EntityCounts() []TypeCount {
	return sortedCounts(s.Entities)
}

// EventCounts lists event types by descending count,
// breaking ties by name.
func (s *Statistics) EventCounts() []TypeCount {
	return sortedCounts(s.Events)
}

func sortedCounts(m map[string]TypeStats) []TypeCount {
	counts := make([]TypeCount, 0, len(m))
	for typ, st := range m {
		counts = append(counts, TypeCount{Type: typ, Count: st.Count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Type < counts[j].Type
	})
	return counts
}

// ComputeStatistics counts entities and events by type.
func ComputeStatistics(entities []Entity, events []Event) Statistics {
	stats := Statistics{
		Entities:      make(map[string]TypeStats),
		Events:        make(map[string]TypeStats),
		TotalEntities: len(entities),
		TotalEvents:   len(events),
	}
	for _, e := range entities {
		st := stats.Entities[e.Type]
		st.Count++
		st.Items = append(st.Items, e.Text)
		stats.Entities[e.Type] = st
	}
	for _, e := range events {
		st := stats.Events[e.Type]
		st.Count++
		st.Items = append(st.Items, e.Trigger)
		stats.Events[e.Type] = st
	}
	return stats
}
