package llm

import (
	"encoding/json"
	"testing"

	"pruefungscoach/internal/apperr"
)

func TestExtractJSONObject_PlainObject(t *testing.T) {
	raw, err := ExtractJSONObject(`{"title":"Test"}`)
	if err != nil {
		t.Fatalf("unerwarteter Fehler: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("Ergebnis ist kein JSON: %v", err)
	}
	if obj["title"] != "Test" {
		t.Fatalf("title = %v", obj["title"])
	}
}

func TestExtractJSONObject_WrappedInProse(t *testing.T) {
	text := "Hier ist die Zusammenfassung:\n\n{\"title\": \"Algebra\"}\n\nViel Erfolg beim Lernen!"
	raw, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("unerwarteter Fehler: %v", err)
	}
	var obj map[string]any
	json.Unmarshal(raw, &obj)
	if obj["title"] != "Algebra" {
		t.Fatalf("title = %v", obj["title"])
	}
}

func TestExtractJSONObject_NestedObjectsAndBracesInStrings(t *testing.T) {
	// geschachtelte Objekte und Klammern in Strings dürfen den Parser
	// nicht aus dem Tritt bringen
	text := `Antwort: {"outer": {"inner": "hat } eine Klammer"}, "list": [{"a": 1}]} Ende`
	raw, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("unerwarteter Fehler: %v", err)
	}
	var obj struct {
		Outer struct {
			Inner string `json:"inner"`
		} `json:"outer"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("Ergebnis ist kein JSON: %v", err)
	}
	if obj.Outer.Inner != "hat } eine Klammer" {
		t.Fatalf("inner = %q", obj.Outer.Inner)
	}
}

func TestExtractJSONObject_SkipsInvalidCandidates(t *testing.T) {
	// Die erste öffnende Klammer gehört zu kaputtem Pseudo-JSON,
	// erst danach kommt das echte Objekt
	text := `{kaputt und das echte: {"ok": true}`
	raw, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("unerwarteter Fehler: %v", err)
	}
	var obj map[string]any
	json.Unmarshal(raw, &obj)
	if obj["ok"] != true {
		t.Fatalf("ok = %v", obj["ok"])
	}
}

func TestExtractJSONObject_NoObjectIsParseError(t *testing.T) {
	for _, text := range []string{"", "nur Prosa ohne JSON", "{ kaputt"} {
		_, err := ExtractJSONObject(text)
		if apperr.TypeOf(err) != apperr.TypeParse {
			t.Errorf("ExtractJSONObject(%q): Typ = %q, erwartet parse", text, apperr.TypeOf(err))
		}
		if apperr.IsRetryable(err) {
			t.Errorf("ExtractJSONObject(%q): Parse-Fehler dürfen nicht wiederholt werden", text)
		}
	}
}
