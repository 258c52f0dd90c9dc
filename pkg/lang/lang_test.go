package lang

import "testing"

func TestDefaultCatalog(t *testing.T) {
	catalog := MustLoad()

	cases := map[string]string{
		"thanks":             "Thanks !",
		"ask-to-escalate":    "Do you want to start a chat with a human agent?",
		"validate":           "Confirm",
		"date_format":        "date format: mm/dd/YYYY",
		"ask_rating_comment": "Please tell us why",
		"rate-content-intro": "Was this answer helpful?",
		"yes":                "Yes",
		"no":                 "No",
	}
	for key, want := range cases {
		if got := catalog.Translate(key); got != want {
			t.Fatalf("Translate(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestUnknownKeyReturnsKey(t *testing.T) {
	if got := MustLoad().Translate("not-a-key"); got != "not-a-key" {
		t.Fatalf("Translate = %q, want key", got)
	}
}

func TestUnknownLocaleFallsBack(t *testing.T) {
	catalog, err := Load("xx", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if catalog.Locale() != DefaultLocale {
		t.Fatalf("locale = %q, want %q", catalog.Locale(), DefaultLocale)
	}
	if got := catalog.Translate("yes"); got != "Yes" {
		t.Fatalf("Translate(yes) = %q", got)
	}
}

func TestOverrides(t *testing.T) {
	catalog, err := Load("", map[string]string{"thanks": "Merci !", "custom": "value"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := catalog.Translate("thanks"); got != "Merci !" {
		t.Fatalf("Translate(thanks) = %q", got)
	}
	if got := catalog.Translate("custom"); got != "value" {
		t.Fatalf("Translate(custom) = %q", got)
	}
	if got := catalog.Translate("no"); got != "No" {
		t.Fatalf("Translate(no) = %q", got)
	}
}
