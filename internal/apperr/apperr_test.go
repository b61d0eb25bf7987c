package apperr

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestHTTP_RetryableClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{408, true},
		{500, true},
		{502, true},
		{503, true},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{422, false},
	}
	for _, tc := range tests {
		err := HTTP(tc.status, "body")
		if err.Retryable != tc.retryable {
			t.Errorf("HTTP(%d): Retryable = %v, erwartet %v", tc.status, err.Retryable, tc.retryable)
		}
		if err.Status != tc.status {
			t.Errorf("HTTP(%d): Status = %d", tc.status, err.Status)
		}
	}
}

func TestHTTP_TruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	err := HTTP(500, long)
	if len(err.Message) > 250 {
		t.Fatalf("Message zu lang: %d Zeichen", len(err.Message))
	}
}

func TestFatalConstructors(t *testing.T) {
	fatals := []*AppError{
		Configuration("kein Schlüssel"),
		EmptyResponse(),
		Parse("nichts gefunden", nil),
		Structure([]string{"title: Feld fehlt"}),
		EmptyInput("keine Dokumente"),
		EmptyContent("alles leer"),
	}
	for _, err := range fatals {
		if err.Retryable {
			t.Errorf("%s darf nicht retryable sein", err.Type)
		}
		if err.Timestamp.IsZero() {
			t.Errorf("%s: Timestamp fehlt", err.Type)
		}
	}

	retryables := []*AppError{
		Network(fmt.Errorf("connection refused")),
		Timeout(120 * time.Second),
	}
	for _, err := range retryables {
		if !err.Retryable {
			t.Errorf("%s muss retryable sein", err.Type)
		}
	}
}

func TestError_IncludesFileAndViolations(t *testing.T) {
	err := Structure([]string{"title: Feld fehlt", "summary: leer"}).WithFile("skript.pdf")
	msg := err.Error()
	for _, want := range []string{"structure", "skript.pdf", "title: Feld fehlt", "summary: leer"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() enthält %q nicht: %s", want, msg)
		}
	}
}

func TestTypeOfAndIsRetryable_WrappedErrors(t *testing.T) {
	inner := HTTP(429, "zu viele Anfragen")
	wrapped := fmt.Errorf("Aufruf fehlgeschlagen: %w", inner)

	if TypeOf(wrapped) != TypeHTTP {
		t.Fatalf("TypeOf = %q", TypeOf(wrapped))
	}
	if !IsRetryable(wrapped) {
		t.Fatal("IsRetryable muss durch Wrapping hindurchsehen")
	}

	if TypeOf(fmt.Errorf("fremder Fehler")) != "" {
		t.Fatal("fremde Fehler haben keinen Typ")
	}
	if IsRetryable(nil) {
		t.Fatal("nil ist nicht retryable")
	}
}
