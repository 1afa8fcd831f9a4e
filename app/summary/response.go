package summary

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lysyi3m/newsletter-digest/app/ai"
)

// response is the provider answer after coercion: every field has a usable value.
type response struct {
	Summary   string
	KeyPoints []string
	Topics    []string
	Sentiment string
	ReadTime  int
}

// decodeResponse accepts any JSON object. Missing or mistyped fields fall back
// to defaults; text that is not a JSON object is an error.
func decodeResponse(text string) (response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFence(text)), &fields); err != nil {
		return response{}, fmt.Errorf("failed to decode summary JSON: %w", err)
	}
	if fields == nil {
		return response{}, fmt.Errorf("summary JSON is not an object")
	}

	r := response{
		Summary:   DefaultSummaryText,
		KeyPoints: StringList(fields["keyPoints"]),
		Topics:    StringList(fields["topics"]),
		Sentiment: SentimentNeutral,
		ReadTime:  DefaultReadTime,
	}

	if s := stringField(fields["summary"]); s != "" {
		r.Summary = s
	}

	switch s := strings.ToLower(stringField(fields["sentiment"])); s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		r.Sentiment = s
	}

	if minutes := intField(fields["readTimeMinutes"]); minutes > 0 {
		r.ReadTime = minutes
	}

	return r, nil
}

// StringList decodes a JSON array keeping only non-empty string entries. Any
// other shape yields an empty list.
func StringList(raw json.RawMessage) []string {
	list := []string{}
	if len(raw) == 0 {
		return list
	}

	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return list
	}

	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			list = append(list, strings.TrimSpace(s))
		}
	}
	return list
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func intField(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f))
	}

	if n, err := strconv.Atoi(stringField(raw)); err == nil {
		return n
	}
	return 0
}
