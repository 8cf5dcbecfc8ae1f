package extract

import "sort"

// TimelineEntry is an event placed on the timeline by its date attribute.
type TimelineEntry struct {
	Date  string
	Event Event
}

// Timeline lists events that carry a non-empty "date" attribute,
// ordered by that date as text. Events with the same date keep their order.
func Timeline(events []Event) []TimelineEntry {
	var entries []TimelineEntry
	for _, e := range events {
		date, ok := e.Attributes["date"]
		if !ok || date.Empty() {
			continue
		}
		entries = append(entries, TimelineEntry{Date: date.String(), Event: e})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	return entries
}
