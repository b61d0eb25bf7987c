package llm

import (
	"encoding/json"
	"strings"

	"pruefungscoach/internal/apperr"
)

// ExtractJSONObject findet das erste vollständige JSON-Objekt in der
// freien Textantwort des Modells. Statt naiv bis zur letzten schließenden
// Klammer zu schneiden, dekodiert der Streaming-Decoder ab jeder öffnenden
// Klammer genau einen Wert; damit sind geschachtelte Objekte und Klammern
// in Strings kein Problem.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	offset := 0
	for {
		idx := strings.Index(text[offset:], "{")
		if idx == -1 {
			return nil, apperr.Parse("kein JSON-Objekt in der Antwort gefunden", nil)
		}
		start := offset + idx

		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return raw, nil
		}

		offset = start + 1
	}
}
