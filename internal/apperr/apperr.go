package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type klassifiziert einen Fehler der Generierungs-Pipeline
type Type string

const (
	TypeConfiguration Type = "configuration"
	TypeNetwork       Type = "network"
	TypeTimeout       Type = "timeout"
	TypeHTTP          Type = "http"
	TypeEmptyResponse Type = "empty_response"
	TypeParse         Type = "parse"
	TypeStructure     Type = "structure"
	TypeEmptyInput    Type = "empty_input"
	TypeEmptyContent  Type = "empty_content"
)

// AppError ist der klassifizierte Fehler der Pipeline.
// Retryable bedeutet: der RequestClient darf den Versuch wiederholen.
type AppError struct {
	Type       Type
	Message    string
	FileName   string
	Status     int      // nur bei TypeHTTP gesetzt
	Violations []string // nur bei TypeStructure gesetzt
	Retryable  bool
	Timestamp  time.Time
	Err        error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.FileName != "" {
		msg = fmt.Sprintf("%s (Datei: %s)", msg, e.FileName)
	}
	if len(e.Violations) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.Violations, "; "))
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(t Type, retryable bool, msg string) *AppError {
	return &AppError{
		Type:      t,
		Message:   msg,
		Retryable: retryable,
		Timestamp: time.Now(),
	}
}

// Configuration meldet eine fehlende oder ungültige Konfiguration (fatal)
func Configuration(msg string) *AppError {
	return newError(TypeConfiguration, false, msg)
}

// Network meldet einen Transportfehler (retryable)
func Network(err error) *AppError {
	e := newError(TypeNetwork, true, "Verbindung zum Generierungsdienst fehlgeschlagen")
	e.Err = err
	return e
}

// Timeout meldet einen abgebrochenen Versuch nach Ablauf des Zeitlimits (retryable)
func Timeout(limit time.Duration) *AppError {
	return newError(TypeTimeout, true, fmt.Sprintf("Anfrage nach %v abgebrochen", limit))
}

// HTTP klassifiziert einen Nicht-2xx-Status: 429, 408 und 5xx sind retryable,
// alles andere ist fatal
func HTTP(status int, body string) *AppError {
	retryable := status == 429 || status == 408 || status >= 500
	if len(body) > 200 {
		body = body[:200]
	}
	e := newError(TypeHTTP, retryable, fmt.Sprintf("Status %d: %s", status, body))
	e.Status = status
	return e
}

// EmptyResponse meldet eine erfolgreiche Antwort ohne Textinhalt (fatal)
func EmptyResponse() *AppError {
	return newError(TypeEmptyResponse, false, "Antwort enthält keinen Text")
}

// Parse meldet, dass kein gültiges JSON-Objekt gefunden wurde (fatal)
func Parse(msg string, err error) *AppError {
	e := newError(TypeParse, false, msg)
	e.Err = err
	return e
}

// Structure meldet alle gefundenen Schema-Verstöße auf einmal (fatal)
func Structure(violations []string) *AppError {
	e := newError(TypeStructure, false, fmt.Sprintf("%d Schema-Verstöße", len(violations)))
	e.Violations = violations
	return e
}

// EmptyInput meldet eine leere Eingabeliste (fatal, vor jedem Remote-Aufruf)
func EmptyInput(msg string) *AppError {
	return newError(TypeEmptyInput, false, msg)
}

// EmptyContent meldet, dass alle Eingabetexte leer sind (fatal, vor jedem Remote-Aufruf)
func EmptyContent(msg string) *AppError {
	return newError(TypeEmptyContent, false, msg)
}

// IsRetryable prüft, ob ein Fehler wiederholbar klassifiziert wurde
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// TypeOf liefert die Klassifikation eines Fehlers, oder "" für fremde Fehler
func TypeOf(err error) Type {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// WithFile hängt den Dateinamen des betroffenen Dokuments an
func (e *AppError) WithFile(fileName string) *AppError {
	e.FileName = fileName
	return e
}
