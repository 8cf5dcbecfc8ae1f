package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterEntities(t *testing.T) {
	t.Parallel()

	c := func(f float64) *float64 { return &f }
	entities := []Entity{
		{Type: "DRUG", Text: "aspirin", Start: 17, End: 24, Confidence: c(0.9)},
		{Type: "DOSAGE", Text: "81mg", Start: 25, End: 29},
		{Type: "DRUG", Text: "Metoprolol", Start: 40, End: 50, PatternMatched: "metoprolol"},
	}

	texts := func(es []Entity) []string {
		out := make([]string, 0, len(es))
		for _, e := range es {
			out = append(out, e.Text)
		}
		return out
	}

	tests := []struct {
		desc string
		give Filter
		want []string
	}{
		{desc: "no filter", want: []string{"aspirin", "81mg", "Metoprolol"}},
		{desc: "type", give: Filter{Type: "DRUG"}, want: []string{"aspirin", "Metoprolol"}},
		{
			desc: "type and search matching another type",
			give: Filter{Type: "DRUG", Search: "81mg"},
			want: []string{},
		},
		{desc: "search is case insensitive", give: Filter{Search: "METO"}, want: []string{"Metoprolol"}},
		{desc: "search matches type", give: Filter{Search: "dosage"}, want: []string{"81mg"}},
		{desc: "search matches pattern", give: Filter{Search: "pattern"}, want: []string{"Metoprolol"}},
		{desc: "search matches confidence", give: Filter{Search: "0.90"}, want: []string{"aspirin"}},
		{desc: "unknown type", give: Filter{Type: "DISEASE"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, texts(FilterEntities(entities, tt.give)))
		})
	}
}

func TestFilterEvents(t *testing.T) {
	t.Parallel()

	events := []Event{
		{Type: "ADMISSION", Trigger: "admitted", Attributes: map[string]AttributeValue{
			"location": List("General Hospital"),
		}},
		{Type: "MEDICATION", Trigger: "started on", Attributes: map[string]AttributeValue{
			"medication": List("aspirin", "metoprolol"),
			"patient":    List(),
		}},
	}

	got := FilterEvents(events, Filter{Search: "hospital"})
	if assert.Len(t, got, 1) {
		assert.Equal(t, "ADMISSION", got[0].Type)
	}

	got = FilterEvents(events, Filter{Search: "aspirin, metoprolol"})
	if assert.Len(t, got, 1) {
		assert.Equal(t, "MEDICATION", got[0].Type)
	}

	// Empty attributes are not shown and cannot be matched.
	assert.Empty(t, FilterEvents(events, Filter{Search: "patient"}))

	assert.Len(t, FilterEvents(events, Filter{Type: "ADMISSION"}), 1)
}

func TestEvent_ShownAttributes(t *testing.T) {
	t.Parallel()

	ev := Event{Attributes: map[string]AttributeValue{
		"time":       Scalar(""),
		"medication": List("aspirin"),
		"date":       Scalar("March 15, 2024"),
	}}

	var names []string
	for _, a := range ev.ShownAttributes() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"date", "medication"}, names)
}

func TestEventTypes(t *testing.T) {
	t.Parallel()

	events := []Event{{Type: "B"}, {Type: "A"}, {Type: "B"}, {Type: "C"}}
	assert.Equal(t, []string{"B", "A", "C"}, EventTypes(events))
	assert.Empty(t, EventTypes(nil))
}

func TestEntityTypes(t *testing.T) {
	t.Parallel()

	entities := []Entity{{Type: "DRUG"}, {Type: "DOSAGE"}, {Type: "DRUG"}}
	assert.Equal(t, []string{"DRUG", "DOSAGE"}, EntityTypes(entities))
}

func TestFormatConfidence(t *testing.T) {
	t.Parallel()

	f := 0.8
	assert.Equal(t, "0.80", FormatConfidence(&f))
	assert.Equal(t, "0.00", FormatConfidence(nil))
}
