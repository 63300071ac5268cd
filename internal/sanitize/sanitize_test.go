package sanitize

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitize_StripsControlCharacters(t *testing.T) {
	in := "a\x00b\x07c\x0bd\x0ce\x0ef\x1fg\x7fh"
	if got := Sanitize(in); got != "abcdefgh" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitize_PreservesWhitespace(t *testing.T) {
	in := "line one\nline\ttwo\r\nthree four"
	if got := Sanitize(in); got != in {
		t.Fatalf("whitespace must survive, got %q", got)
	}
}

func TestSanitize_StripsMarkupKeepsContent(t *testing.T) {
	cases := []struct{ in, want string }{
		{`<b>bold</b>`, "bold"},
		{`<script src="x.js">alert(1)</script>`, "alert(1)"},
		{`before <img src=x onerror=alert(1)> after`, "before  after"},
		{`a < b and c > d`, "a  d"}, // the delimited span reads as one tag
		{`a < b`, "a  b"},           // bare delimiters dropped too
		{`<<b>script>payload<</b>/script>`, "payload"},
		{"", ""},
		{"plain text", "plain text"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitize_NeverEmitsDelimiters(t *testing.T) {
	inputs := []string{
		`<a href="x">y</a>`,
		`<<<>>>`,
		`<scr<script>ipt>alert(1)</scr</script>ipt>`,
		"x\x01<\x02>y",
	}
	for _, in := range inputs {
		got := Sanitize(in)
		if strings.ContainsAny(got, "<>") {
			t.Errorf("Sanitize(%q) = %q still contains markup delimiters", in, got)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		`<b>bold</b>`,
		`<scr<script>ipt>x`,
		"plain",
		"a\x00<i>b</i>",
		`<>: weird < stuff >`,
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestDeep(t *testing.T) {
	in := map[string]any{
		"<b>key</b>": "<i>value</i>",
		"list":       []any{"<u>a</u>", float64(3), true, nil},
		"nested":     map[string]any{"inner": "x\x00y"},
		"num":        float64(42),
	}
	want := map[string]any{
		"key":    "value",
		"list":   []any{"a", float64(3), true, nil},
		"nested": map[string]any{"inner": "xy"},
		"num":    float64(42),
	}
	if got := Deep(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestDeep_Scalars(t *testing.T) {
	if got := Deep(nil); got != nil {
		t.Fatalf("nil must pass through, got %#v", got)
	}
	if got := Deep(true); got != true {
		t.Fatalf("bool must pass through, got %#v", got)
	}
	if got := Deep(float64(1.5)); got != float64(1.5) {
		t.Fatalf("number must pass through, got %#v", got)
	}
	// Unknown types collapse to the empty string.
	if got := Deep(struct{}{}); got != "" {
		t.Fatalf("unknown type must collapse to empty string, got %#v", got)
	}
}
