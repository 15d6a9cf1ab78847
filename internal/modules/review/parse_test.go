package review

import (
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"plain", `{"rating": 4}`, true},
		{"fenced", "```json\n{\"rating\": 4}\n```", true},
		{"bare fence", "```\n{\"rating\": 4}\n```", true},
		{"prose wrapped", `Sure! Here is the review: {"rating": 4} Hope it helps.`, true},
		{"no object", "I'd say about four stars.", false},
		{"broken object", `{"rating": `, false},
	}
	for _, tc := range cases {
		obj, ok := extractJSON(tc.in)
		if ok != tc.ok {
			t.Errorf("%s: expected ok=%v, got %v", tc.name, tc.ok, ok)
			continue
		}
		if ok {
			if r, found := asFloat(obj["rating"]); !found || r != 4 {
				t.Errorf("%s: expected rating 4, got %v", tc.name, obj["rating"])
			}
		}
	}
}

func TestSnapRating(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{7, 5},
		{-2, 1},
		{0.9, 1},
		{4.44, 4.4},
		{4.45, 4.5},
		{3, 3},
	}
	for _, tc := range cases {
		if got := snapRating(tc.in); got != tc.want {
			t.Errorf("snapRating(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestAsStringJoinsArrays(t *testing.T) {
	if got := asString([]interface{}{"fast", "friendly"}); got != "fast; friendly" {
		t.Errorf("expected joined string, got %q", got)
	}
	if got := asString("  padded  "); got != "padded" {
		t.Errorf("expected trimmed string, got %q", got)
	}
	if got := asString(nil); got != "" {
		t.Errorf("expected empty for nil, got %q", got)
	}
}

func TestAsStringSlice(t *testing.T) {
	got := asStringSlice([]interface{}{"a", "", "b", 3.0})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "3" {
		t.Errorf("unexpected slice: %v", got)
	}
	if got := asStringSlice("solo"); len(got) != 1 || got[0] != "solo" {
		t.Errorf("single string should wrap: %v", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("short text should pass through, got %q", got)
	}

	long := strings.Repeat("ж", 50)
	got := truncateRunes(long, 20)
	if n := len([]rune(got)); n != 20 {
		t.Errorf("expected 20 runes, got %d", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if strings.Contains(got, "�") {
		t.Error("truncation split a multibyte character")
	}
}
