package i18n

import "testing"

func TestMatch(t *testing.T) {
	cases := map[string]string{
		"":            "en",
		"en-US":       "en",
		"pt_BR":       "pt",
		"es-MX":       "es",
		"fr,es;q=0.8": "es",
		"de":          "en",
		"not a tag!!": "en",
	}
	for in, want := range cases {
		if got := Match(in); got != want {
			t.Errorf("Match(%q): expected '%s', got '%s'", in, want, got)
		}
	}
}

func TestTranslate(t *testing.T) {
	pt := New("pt-BR")
	if got := pt.T("Stop"); got != "Parar" {
		t.Errorf("Expected 'Parar', got '%s'", got)
	}
	if got := pt.T("unknown label"); got != "unknown label" {
		t.Errorf("Expected key fallback, got '%s'", got)
	}

	en := New("en")
	if got := en.T("Click to set the key"); got != "Click to set the key" {
		t.Errorf("Expected english passthrough, got '%s'", got)
	}
}

func TestDetectEnvOverride(t *testing.T) {
	t.Setenv(EnvLang, "es")
	if got := Detect("pt").Lang(); got != "es" {
		t.Errorf("Expected env to win, got '%s'", got)
	}
}
