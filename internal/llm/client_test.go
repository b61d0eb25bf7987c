package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pruefungscoach/internal/apperr"
)

// newTestClient baut einen Client gegen den Testserver, mit festem
// Jitter und aufgezeichneten Wartezeiten statt echtem Schlafen
func newTestClient(t *testing.T, url string, sleeps *[]time.Duration) *ClaudeClient {
	t.Helper()
	c, err := NewClaudeClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("NewClaudeClient: %v", err)
	}
	c.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	c.jitter = func() time.Duration { return 0 }
	return c
}

const successBody = `{"content":[{"type":"text","text":"Hallo Welt"}]}`

func TestComplete_RetriesOn429ThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key fehlt")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("anthropic-version fehlt")
		}
		if calls <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(t, srv.URL, &sleeps)

	text, err := c.Complete(context.Background(), "test", nil)
	if err != nil {
		t.Fatalf("unerwarteter Fehler: %v", err)
	}
	if text != "Hallo Welt" {
		t.Fatalf("text = %q", text)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, erwartet 4", calls)
	}

	// Backoff: 1s, 2s, 4s bei Jitter 0
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v", sleeps)
	}
	for i, d := range sleeps {
		if d != want[i] {
			t.Errorf("sleep %d = %v, erwartet %v", i, d, want[i])
		}
		if i > 0 && d < sleeps[i-1] {
			t.Errorf("Wartezeiten müssen monoton wachsen: %v", sleeps)
		}
	}
}

func TestComplete_FatalOn400(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(t, srv.URL, &sleeps)

	_, err := c.Complete(context.Background(), "test", nil)
	if err == nil {
		t.Fatal("Fehler erwartet")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, 400 darf nicht wiederholt werden", calls)
	}
	if len(sleeps) != 0 {
		t.Fatalf("kein Backoff erwartet, sleeps = %v", sleeps)
	}
	if apperr.TypeOf(err) != apperr.TypeHTTP {
		t.Fatalf("Typ = %q", apperr.TypeOf(err))
	}
	if apperr.IsRetryable(err) {
		t.Fatal("400 darf nicht als retryable klassifiziert sein")
	}
}

func TestComplete_ExhaustsRetriesOn500(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(t, srv.URL, &sleeps)

	_, err := c.Complete(context.Background(), "test", nil)
	if err == nil {
		t.Fatal("Fehler erwartet")
	}
	// Erstversuch + 3 Wiederholungen
	if calls != 4 {
		t.Fatalf("calls = %d, erwartet 4", calls)
	}
	if len(sleeps) != 3 {
		t.Fatalf("sleeps = %v, erwartet 3 Backoff-Pausen", sleeps)
	}
	if apperr.TypeOf(err) != apperr.TypeHTTP {
		t.Fatalf("Typ = %q", apperr.TypeOf(err))
	}
}

func TestComplete_EmptyContentIsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(t, srv.URL, &sleeps)

	_, err := c.Complete(context.Background(), "test", nil)
	if apperr.TypeOf(err) != apperr.TypeEmptyResponse {
		t.Fatalf("Typ = %q, erwartet empty_response", apperr.TypeOf(err))
	}
	if apperr.IsRetryable(err) {
		t.Fatal("leere Antwort darf nicht wiederholt werden")
	}
}

func TestComplete_SkipsNonTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"tool_use","text":""},{"type":"text","text":"richtig"}]}`))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(t, srv.URL, &sleeps)

	text, err := c.Complete(context.Background(), "test", nil)
	if err != nil {
		t.Fatalf("unerwarteter Fehler: %v", err)
	}
	if text != "richtig" {
		t.Fatalf("text = %q", text)
	}
}

func TestComplete_NetworkErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // Server weg, jeder Versuch scheitert am Transport

	var sleeps []time.Duration
	c := newTestClient(t, url, &sleeps)

	_, err := c.Complete(context.Background(), "test", nil)
	if apperr.TypeOf(err) != apperr.TypeNetwork {
		t.Fatalf("Typ = %q, erwartet network", apperr.TypeOf(err))
	}
	if len(sleeps) != 3 {
		t.Fatalf("sleeps = %d, Netzwerkfehler müssen wiederholt werden", len(sleeps))
	}
}

func TestComplete_StopsOnCancelledContext(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(t, srv.URL, &sleeps)

	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
		cancel() // Abbruch während des Backoffs
	}

	_, err := c.Complete(ctx, "test", nil)
	if err == nil {
		t.Fatal("Fehler erwartet")
	}
	// Der Versuch nach dem Abbruch scheitert am Context, danach ist Schluss
	if calls != 1 {
		t.Fatalf("calls = %d, nach Abbruch darf der Server nichts mehr sehen", calls)
	}
	if len(sleeps) != 1 {
		t.Fatalf("sleeps = %d, nach Abbruch darf kein weiteres Backoff folgen", len(sleeps))
	}
}

func TestNewClaudeClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClaudeClient(ClientConfig{})
	if err == nil {
		t.Fatal("Fehler erwartet")
	}
	if apperr.TypeOf(err) != apperr.TypeConfiguration {
		t.Fatalf("Typ = %q, erwartet configuration", apperr.TypeOf(err))
	}
	if apperr.IsRetryable(err) {
		t.Fatal("Konfigurationsfehler dürfen nie wiederholt werden")
	}
}
