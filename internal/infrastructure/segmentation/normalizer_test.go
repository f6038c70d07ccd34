package segmentation

import "testing"

func TestNormalizeStripsMarkup(t *testing.T) {
	raw := `<html><head><script type="text/javascript">var x = 1;</script>` +
		`<style>.a{color:red}</style></head><body><!-- header -->` +
		`<p>Revenue&nbsp;rose&#46; Costs &amp; taxes fell.</p></body></html>`

	got := NewNormalizer().Normalize(raw)
	want := "Revenue rose. Costs & taxes fell."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeReplacesTagsWithSpaces(t *testing.T) {
	got := NewNormalizer().Normalize("net<br>income")
	if got != "net income" {
		t.Fatalf("expected tag boundary to keep tokens apart, got %q", got)
	}
}

func TestNormalizeDecodesNumericEntities(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "ascii", raw: "&#65;&#66;&#67;", want: "ABC"},
		{name: "out of range", raw: "a&#99999999;b", want: "a b"},
		{name: "surrogate", raw: "a&#55296;b", want: "a b"},
	}
	n := NewNormalizer()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.raw); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := NewNormalizer().Normalize("  one\n\ntwo\t three  ")
	if got != "one two three" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := NewNormalizer().Normalize(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestNormalizeRemovesScriptContentAcrossLines(t *testing.T) {
	raw := "before<script>\nvar hidden = \"secret\";\n</script>after"
	got := NewNormalizer().Normalize(raw)
	if got != "before after" {
		t.Fatalf("expected script body removed, got %q", got)
	}
}
