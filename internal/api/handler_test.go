package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pruefungscoach/internal/config"
	"pruefungscoach/internal/llm"
	"pruefungscoach/internal/models"
	"pruefungscoach/internal/storage"
)

// stubClient liefert immer dieselbe Antwort
type stubClient struct {
	reply string
	err   error
	calls int
}

func (s *stubClient) Complete(ctx context.Context, prompt string, opts *llm.CompleteOptions) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubClient) Model() string { return "stub" }

func newTestAPI(t *testing.T, client llm.Client) (*Handler, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewHandler(store, client, config.Default()), store
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestAPI(t, &stubClient{})
	router := NewRouter(h)

	rec := doJSON(t, router, "GET", "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" || body["model"] != "stub" {
		t.Fatalf("body = %v", body)
	}
}

func TestSubmitAnswersAndResults(t *testing.T) {
	h, store := newTestAPI(t, &stubClient{})
	router := NewRouter(h)

	quiz := &models.Quiz{
		ID: "quiz1",
		Questions: []models.Question{
			{ID: "q1", Question: "F1?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "A", Difficulty: "easy", Topic: "Brüche"},
			{ID: "q2", Question: "F2?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "B", Difficulty: "easy", Topic: "Prozente"},
		},
		GeneratedAt: time.Now(),
	}
	if err := store.SaveQuiz(quiz); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, "POST", "/api/v1/quizzes/quiz1/answers",
		`{"answers": {"q1": "A", "q2": "C"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", rec.Code, rec.Body.String())
	}

	var results models.QuizResults
	json.Unmarshal(rec.Body.Bytes(), &results)
	if results.Score != 1 || results.TotalQuestions != 2 {
		t.Fatalf("results = %d/%d", results.Score, results.TotalQuestions)
	}
	if results.Percentage != 50 || results.ReadinessLevel != "moderate" {
		t.Fatalf("Percentage = %v, Level = %q", results.Percentage, results.ReadinessLevel)
	}
	if len(results.WeakAreas) != 1 || results.WeakAreas[0] != "Prozente" {
		t.Fatalf("WeakAreas = %v", results.WeakAreas)
	}

	// Auswertung muss danach abrufbar sein
	rec = doJSON(t, router, "GET", "/api/v1/quizzes/quiz1/results", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET results: Status = %d", rec.Code)
	}
}

func TestSubmitAnswers_UnknownQuiz(t *testing.T) {
	h, _ := newTestAPI(t, &stubClient{})
	router := NewRouter(h)

	rec := doJSON(t, router, "POST", "/api/v1/quizzes/unbekannt/answers", `{"answers": {}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status = %d", rec.Code)
	}
}

func TestCreateQuiz_NoDocumentsIsBadRequest(t *testing.T) {
	client := &stubClient{}
	h, _ := newTestAPI(t, client)
	router := NewRouter(h)

	rec := doJSON(t, router, "POST", "/api/v1/quizzes", `{"document_ids": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d: %s", rec.Code, rec.Body.String())
	}
	if client.calls != 0 {
		t.Fatalf("calls = %d, ohne Dokumente darf der Dienst nicht angefragt werden", client.calls)
	}
}

func TestCreateQuiz_Success(t *testing.T) {
	questions := make([]map[string]any, 10)
	difficulties := []string{"easy", "easy", "easy", "easy", "medium", "medium", "medium", "medium", "hard", "hard"}
	for i, d := range difficulties {
		questions[i] = map[string]any{
			"question":       fmt.Sprintf("Frage %d?", i+1),
			"options":        []string{"a", "b", "c", "d"},
			"correct_answer": "A",
			"explanation":    "Darum.",
			"difficulty":     d,
			"topic":          "Thema",
		}
	}
	reply, _ := json.Marshal(map[string]any{"questions": questions})

	h, store := newTestAPI(t, &stubClient{reply: string(reply)})
	router := NewRouter(h)

	store.SaveExtractedText(&models.ExtractedText{
		FileID: "f1", FileName: "skript.pdf", Content: "Inhalt", WordCount: 1,
	})

	rec := doJSON(t, router, "POST", "/api/v1/quizzes", `{"document_ids": ["f1"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d: %s", rec.Code, rec.Body.String())
	}

	var quiz models.Quiz
	json.Unmarshal(rec.Body.Bytes(), &quiz)
	if len(quiz.Questions) != 10 || quiz.ID == "" {
		t.Fatalf("quiz = %d Fragen, ID %q", len(quiz.Questions), quiz.ID)
	}

	// und per GET wieder abrufbar
	rec = doJSON(t, router, "GET", "/api/v1/quizzes/"+quiz.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET quiz: Status = %d", rec.Code)
	}
}

func TestSnapshot_MissingIs404(t *testing.T) {
	h, _ := newTestAPI(t, &stubClient{})
	router := NewRouter(h)

	rec := doJSON(t, router, "GET", "/api/v1/snapshot", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status = %d", rec.Code)
	}
}

func TestSnapshot_RoundtripAndStaleness(t *testing.T) {
	h, _ := newTestAPI(t, &stubClient{})
	router := NewRouter(h)

	rec := doJSON(t, router, "POST", "/api/v1/snapshot",
		`{"files": ["skript.pdf"], "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST: Status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/api/v1/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: Status = %d", rec.Code)
	}

	// veralteter Schnappschuss: wie nicht vorhanden
	stale := time.Now().Add(-25 * time.Hour).Format(time.RFC3339)
	doJSON(t, router, "POST", "/api/v1/snapshot", `{"files": ["alt.pdf"], "timestamp": "`+stale+`"}`)

	rec = doJSON(t, router, "GET", "/api/v1/snapshot", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET alt: Status = %d", rec.Code)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	h, store := newTestAPI(t, &stubClient{})
	router := NewRouter(h)

	store.SaveExtractedText(&models.ExtractedText{
		FileID: "f1", FileName: "skript.pdf", Content: "geheimer Inhalt", WordCount: 2,
	})

	// Liste liefert Metadaten ohne Inhalt
	rec := doJSON(t, router, "GET", "/api/v1/documents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "geheimer Inhalt") {
		t.Fatal("die Liste darf keine Inhalte ausliefern")
	}

	// Einzelabruf liefert den Inhalt
	rec = doJSON(t, router, "GET", "/api/v1/documents/f1", "")
	if !strings.Contains(rec.Body.String(), "geheimer Inhalt") {
		t.Fatal("Einzelabruf muss den Inhalt enthalten")
	}

	// Löschen
	rec = doJSON(t, router, "DELETE", "/api/v1/documents/f1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE: Status = %d", rec.Code)
	}
	rec = doJSON(t, router, "GET", "/api/v1/documents/f1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("nach DELETE: Status = %d", rec.Code)
	}
}
