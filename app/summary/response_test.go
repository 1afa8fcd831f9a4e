package summary

import (
	"reflect"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    response
		wantErr bool
	}{
		{
			name:  "complete answer",
			input: validResponse,
			want: response{
				Summary:   "Three new models shipped this week.",
				KeyPoints: []string{"Model A", "Model B"},
				Topics:    []string{"AI", "Models"},
				Sentiment: SentimentPositive,
				ReadTime:  4,
			},
		},
		{
			name:  "empty object gets defaults",
			input: `{}`,
			want: response{
				Summary:   DefaultSummaryText,
				KeyPoints: []string{},
				Topics:    []string{},
				Sentiment: SentimentNeutral,
				ReadTime:  DefaultReadTime,
			},
		},
		{
			name:  "fenced with loose types",
			input: "```json\n{\"summary\":\"ok\",\"sentiment\":\"Negative\",\"readTimeMinutes\":\"7\",\"topics\":[\"a\",3,\"\"]}\n```",
			want: response{
				Summary:   "ok",
				KeyPoints: []string{},
				Topics:    []string{"a"},
				Sentiment: SentimentNegative,
				ReadTime:  7,
			},
		},
		{
			name:  "fractional and non-positive read times",
			input: `{"readTimeMinutes": 2.6}`,
			want: response{
				Summary:   DefaultSummaryText,
				KeyPoints: []string{},
				Topics:    []string{},
				Sentiment: SentimentNeutral,
				ReadTime:  3,
			},
		},
		{name: "prose", input: "I think this newsletter is about AI", wantErr: true},
		{name: "array", input: `["a"]`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeResponse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
