package extract

import (
	"fmt"
	"sort"
	"strings"
)

// Filter narrows down a list of entities or events.
type Filter struct {
	// Search is matched case-insensitively
	// against everything shown for an item.
	Search string

	// Type, if set, must equal the item's type.
	Type string
}

func (f Filter) match(typ, visible string) bool {
	if f.Type != "" && typ != f.Type {
		return false
	}
	return strings.Contains(strings.ToLower(visible), strings.ToLower(f.Search))
}

// FilterEntities returns the entities matching f, in their original order.
func FilterEntities(entities []Entity, f Filter) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if f.match(e.Type, e.VisibleText()) {
			out = append(out, e)
		}
	}
	return out
}

// FilterEvents returns the events matching f, in their original order.
func FilterEvents(events []Event, f Filter) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.match(e.Type, e.VisibleText()) {
			out = append(out, e)
		}
	}
	return out
}

// FormatConfidence formats a confidence with two decimals,
// treating a missing value as zero.
func FormatConfidence(c *float64) string {
	var v float64
	if c != nil {
		v = *c
	}
	return fmt.Sprintf("%.2f", v)
}

// VisibleText is everything the entity list shows for this entity.
func (e *Entity) VisibleText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %q Position: %d-%d",
		e.Type, FormatConfidence(e.Confidence), e.Text, e.Start, e.End)
	if e.PatternMatched != "" {
		fmt.Fprintf(&sb, " Pattern: %s", e.PatternMatched)
	}
	return sb.String()
}

// VisibleText is everything the event list shows for this event.
func (e *Event) VisibleText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %q Position: %d-%d",
		e.Type, FormatConfidence(e.Confidence), e.Trigger, e.Start, e.End)
	for _, attr := range e.ShownAttributes() {
		fmt.Fprintf(&sb, " %s: %s", attr.Name, attr.Value)
	}
	return sb.String()
}

// NamedAttribute is an event attribute paired with its name.
type NamedAttribute struct {
	Name  string
	Value AttributeValue
}

// ShownAttributes lists the non-empty attributes of the event by name.
func (e *Event) ShownAttributes() []NamedAttribute {
	attrs := make([]NamedAttribute, 0, len(e.Attributes))
	for name, v := range e.Attributes {
		if !v.Empty() {
			attrs = append(attrs, NamedAttribute{Name: name, Value: v})
		}
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Name < attrs[j].Name
	})
	return attrs
}

// EventTypes lists the distinct event types in order of first appearance.
func EventTypes(events []Event) []string {
	seen := make(map[string]struct{}, len(events))
	var types []string
	for _, e := range events {
		if _, ok := seen[e.Type]; ok {
			continue
		}
		seen[e.Type] = struct{}{}
		types = append(types, e.Type)
	}
	return types
}

// EntityTypes lists the distinct entity types in order of first appearance.
func EntityTypes(entities []Entity) []string {
	seen := make(map[string]struct{}, len(entities))
	var types []string
	for _, e := range entities {
		if _, ok := seen[e.Type]; ok {
			continue
		}
		seen[e.Type] = struct{}{}
		types = append(types, e.Type)
	}
	return types
}
