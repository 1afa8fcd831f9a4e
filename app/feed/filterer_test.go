package feed

import (
	"strings"
	"testing"
)

func testItems() []Item {
	return []Item{
		{
			Title:      "Weekly AI roundup",
			Link:       "https://example.com/ai",
			Content:    "<p>Models and agents</p>",
			Snippet:    "Models and agents",
			Creator:    "Jane Doe",
			Categories: []string{"AI", "Research"},
		},
		{
			Title:      "Sponsored: cloud credits",
			Link:       "https://example.com/sponsored",
			Snippet:    "Buy now",
			Authors:    []string{"ads@example.com (Ads Team)"},
			Categories: []string{"Promo"},
		},
	}
}

func TestFilterer_Run_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(testItems(), nil)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	for _, item := range result {
		if item.IsFiltered {
			t.Errorf("Expected item %q not to be filtered", item.Title)
		}
	}
}

func TestFilterer_Run(t *testing.T) {
	tests := []struct {
		name         string
		filters      []ConfigFilter
		wantFiltered []bool
		wantReason   string
	}{
		{
			name:         "title exclude is case insensitive",
			filters:      []ConfigFilter{{Field: "title", Excludes: []string{"SPONSORED"}}},
			wantFiltered: []bool{false, true},
			wantReason:   "Excluded by title filter: contains 'SPONSORED'",
		},
		{
			name:         "include requires a match",
			filters:      []ConfigFilter{{Field: "categories", Includes: []string{"research"}}},
			wantFiltered: []bool{false, true},
			wantReason:   "does not contain any of",
		},
		{
			name:         "authors include creator",
			filters:      []ConfigFilter{{Field: "authors", Excludes: []string{"jane"}}},
			wantFiltered: []bool{true, false},
		},
		{
			name:         "content falls back to snippet",
			filters:      []ConfigFilter{{Field: "content", Excludes: []string{"buy now"}}},
			wantFiltered: []bool{false, true},
		},
		{
			name:         "content ignores markup",
			filters:      []ConfigFilter{{Field: "content", Excludes: []string{"<p>"}}},
			wantFiltered: []bool{false, false},
		},
		{
			name:         "snippet only",
			filters:      []ConfigFilter{{Field: "snippet", Includes: []string{"agents"}}},
			wantFiltered: []bool{false, true},
		},
		{
			name:         "authors include listed authors",
			filters:      []ConfigFilter{{Field: "authors", Excludes: []string{"ads team"}}},
			wantFiltered: []bool{false, true},
		},
		{
			name: "exclude wins over include",
			filters: []ConfigFilter{
				{Field: "link", Includes: []string{"example.com"}, Excludes: []string{"/sponsored"}},
			},
			wantFiltered: []bool{false, true},
		},
		{
			name:         "unknown field never matches includes",
			filters:      []ConfigFilter{{Field: "unknown", Includes: []string{"x"}}},
			wantFiltered: []bool{true, true},
		},
	}

	filterer := NewFilterer()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterer.Run(testItems(), tt.filters)

			if len(result) != len(tt.wantFiltered) {
				t.Fatalf("Expected %d items, got %d", len(tt.wantFiltered), len(result))
			}
			for i, want := range tt.wantFiltered {
				if result[i].IsFiltered != want {
					t.Errorf("Expected item %d filtered=%v, got %v (%s)", i, want, result[i].IsFiltered, result[i].FilterReason)
				}
			}
			if tt.wantReason != "" && !strings.Contains(result[1].FilterReason, tt.wantReason) {
				t.Errorf("Expected reason containing %q, got %q", tt.wantReason, result[1].FilterReason)
			}
		})
	}
}
