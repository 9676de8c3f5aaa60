package slug

import "testing"

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Sommerfest im Hof – 2024": "sommerfest-im-hof-2024",
		"Größte Bühne":             "groesste-buehne",
		"Café Noir":                "cafe-noir",
		"  --Hallo!!  Welt--  ":    "hallo-welt",
		"":                         "",
	}
	for in, want := range tests {
		if got := Make(in); got != want {
			t.Errorf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title(" konzert im park "); got != "Konzert Im Park" {
		t.Errorf("Title = %q", got)
	}
}
