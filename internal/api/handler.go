package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"pruefungscoach/internal/apperr"
	"pruefungscoach/internal/config"
	"pruefungscoach/internal/extract"
	"pruefungscoach/internal/llm"
	"pruefungscoach/internal/models"
	"pruefungscoach/internal/scoring"
	"pruefungscoach/internal/storage"
)

// generationTimeout deckt auch große Pakete mit Backoff und Pausen ab
const generationTimeout = 15 * time.Minute

// Handler verwaltet alle API-Endpunkte
type Handler struct {
	store     storage.Storage
	client    llm.Client
	generator *llm.Generator
	extractor *extract.Extractor
	config    *config.Config
	upgrader  websocket.Upgrader
}

// NewHandler erstellt einen neuen API-Handler
func NewHandler(store storage.Storage, client llm.Client, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		client:    client,
		generator: llm.NewGenerator(client, cfg.Generation),
		extractor: extract.NewExtractor(cfg.DocumentsPath),
		config:    cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Response-Helper
func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

// appErrorResponse bildet die Fehler-Taxonomie auf HTTP-Status ab
func appErrorResponse(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.TypeOf(err) {
	case apperr.TypeEmptyInput, apperr.TypeEmptyContent:
		status = http.StatusBadRequest
	case apperr.TypeNetwork, apperr.TypeTimeout, apperr.TypeHTTP,
		apperr.TypeEmptyResponse, apperr.TypeParse, apperr.TypeStructure:
		status = http.StatusBadGateway
	}
	errorResponse(w, err.Error(), status)
}

// === System Endpoints ===

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"status":    "ok",
		"model":     h.client.Model(),
		"timestamp": time.Now(),
	}, http.StatusOK)
}

// === Dokument Endpoints ===

func (h *Handler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	texts, err := h.store.GetAllExtractedTexts()
	if err != nil {
		errorResponse(w, "Fehler beim Laden der Dokumente", http.StatusInternalServerError)
		return
	}

	// Inhalte nicht mit ausliefern, nur die Metadaten
	for i := range texts {
		texts[i].Content = ""
	}

	jsonResponse(w, map[string]interface{}{
		"documents": texts,
		"count":     len(texts),
	}, http.StatusOK)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	// Max 50MB
	r.ParseMultipartForm(50 << 20)

	file, header, err := r.FormFile("file")
	if err != nil {
		errorResponse(w, "Keine Datei gefunden", http.StatusBadRequest)
		return
	}
	defer file.Close()

	text, err := h.extractor.ExtractFromReader(file, header.Filename)
	if err != nil {
		errorResponse(w, fmt.Sprintf("Fehler beim Extrahieren: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.store.SaveExtractedText(text); err != nil {
		errorResponse(w, "Fehler beim Speichern", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, text, http.StatusCreated)
}

func (h *Handler) ScanDocumentsFolder(w http.ResponseWriter, r *http.Request) {
	path := h.config.DocumentsPath

	// Optional: Pfad aus Request
	var req struct {
		Path string `json:"path"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Path != "" {
		path = req.Path
	}

	texts, err := h.extractor.ExtractDirectory(path)
	if err != nil {
		errorResponse(w, fmt.Sprintf("Fehler beim Scannen: %v", err), http.StatusInternalServerError)
		return
	}

	for i := range texts {
		h.store.SaveExtractedText(&texts[i])
	}

	jsonResponse(w, map[string]interface{}{
		"message":   fmt.Sprintf("%d Dokumente gefunden und verarbeitet", len(texts)),
		"documents": texts,
	}, http.StatusOK)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	text, err := h.store.GetExtractedText(id)
	if err != nil {
		errorResponse(w, "Dokument nicht gefunden", http.StatusNotFound)
		return
	}

	jsonResponse(w, text, http.StatusOK)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if err := h.store.DeleteExtractedText(id); err != nil {
		errorResponse(w, "Fehler beim Löschen", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]string{"message": "Dokument gelöscht"}, http.StatusOK)
}

// === Generierungs-Endpoints ===

// generationMutex verhindert parallele Generierungsläufe, die Verarbeitung
// ist bewusst sequentiell (Rate-Limit des Dienstes)
var generationMutex sync.Mutex
var generationInProgress bool

func acquireGeneration() bool {
	generationMutex.Lock()
	defer generationMutex.Unlock()
	if generationInProgress {
		return false
	}
	generationInProgress = true
	return true
}

func releaseGeneration() {
	generationMutex.Lock()
	generationInProgress = false
	generationMutex.Unlock()
}

// loadTexts lädt die angefragten Dokumente in der Reihenfolge der IDs
func (h *Handler) loadTexts(ids []string) []models.ExtractedText {
	var texts []models.ExtractedText
	for _, id := range ids {
		text, err := h.store.GetExtractedText(id)
		if err != nil {
			log.Printf("   ✗ Dokument %s nicht gefunden: %v", id, err)
			continue
		}
		texts = append(texts, *text)
	}
	return texts
}

func (h *Handler) CreateRevisionPack(w http.ResponseWriter, r *http.Request) {
	if !acquireGeneration() {
		log.Println("⚠️ Generierung läuft bereits, ignoriere Anfrage")
		errorResponse(w, "Generierung läuft bereits, bitte warten", http.StatusTooManyRequests)
		return
	}
	defer releaseGeneration()

	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "Ungültige Anfrage", http.StatusBadRequest)
		return
	}

	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("📋 WIEDERHOLUNGSPAKET ERSTELLEN - Start")
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	texts := h.loadTexts(req.DocumentIDs)

	// Eigener Context mit langem Timeout (nicht abhängig vom HTTP-Request)
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	pack, err := h.generator.BuildRevisionPack(ctx, texts, nil)
	if err != nil {
		log.Printf("❌ Fehler bei der Generierung: %v", err)
		appErrorResponse(w, err)
		return
	}

	if err := h.store.SaveRevisionPack(pack); err != nil {
		errorResponse(w, "Fehler beim Speichern", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Paket erstellt: %d Dokumente, %d Minuten Lesezeit", len(pack.Documents), pack.TotalReadingTime)
	jsonResponse(w, pack, http.StatusCreated)
}

// CreateRevisionPackWS streamt den Fortschritt der Paket-Generierung
// pro Dokument über einen WebSocket
func (h *Handler) CreateRevisionPackWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := conn.ReadJSON(&req); err != nil {
		return
	}

	if !acquireGeneration() {
		conn.WriteJSON(map[string]string{"error": "Generierung läuft bereits, bitte warten"})
		return
	}
	defer releaseGeneration()

	texts := h.loadTexts(req.DocumentIDs)

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	progress := func(index, total int, fileName string, perDocErr error) {
		event := map[string]interface{}{
			"index":     index,
			"total":     total,
			"file_name": fileName,
		}
		if perDocErr != nil {
			event["failed"] = true
		}
		conn.WriteJSON(event)
	}

	pack, err := h.generator.BuildRevisionPack(ctx, texts, progress)
	if err != nil {
		conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.SaveRevisionPack(pack); err != nil {
		conn.WriteJSON(map[string]string{"error": "Fehler beim Speichern"})
		return
	}

	conn.WriteJSON(map[string]interface{}{
		"done": true,
		"pack": pack,
	})
}

func (h *Handler) GetRevisionPack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	pack, err := h.store.GetRevisionPack(id)
	if err != nil {
		errorResponse(w, "Paket nicht gefunden", http.StatusNotFound)
		return
	}

	jsonResponse(w, pack, http.StatusOK)
}

func (h *Handler) GetLatestRevisionPack(w http.ResponseWriter, r *http.Request) {
	pack, err := h.store.GetLatestRevisionPack()
	if err != nil {
		errorResponse(w, "Kein Paket vorhanden", http.StatusNotFound)
		return
	}

	jsonResponse(w, pack, http.StatusOK)
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	if !acquireGeneration() {
		log.Println("⚠️ Generierung läuft bereits, ignoriere Anfrage")
		errorResponse(w, "Generierung läuft bereits, bitte warten", http.StatusTooManyRequests)
		return
	}
	defer releaseGeneration()

	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "Ungültige Anfrage", http.StatusBadRequest)
		return
	}

	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("📝 QUIZ ERSTELLEN - Start")
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	texts := h.loadTexts(req.DocumentIDs)

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	quiz, err := h.generator.GenerateQuiz(ctx, texts)
	if err != nil {
		log.Printf("❌ Fehler bei der Generierung: %v", err)
		appErrorResponse(w, err)
		return
	}

	if err := h.store.SaveQuiz(quiz); err != nil {
		errorResponse(w, "Fehler beim Speichern", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Quiz erstellt: %d Fragen", len(quiz.Questions))
	jsonResponse(w, quiz, http.StatusCreated)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	quiz, err := h.store.GetQuiz(id)
	if err != nil {
		errorResponse(w, "Quiz nicht gefunden", http.StatusNotFound)
		return
	}

	jsonResponse(w, quiz, http.StatusOK)
}

// === Auswertungs-Endpoints ===

func (h *Handler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var answers models.UserAnswers
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		errorResponse(w, "Ungültige Anfrage", http.StatusBadRequest)
		return
	}
	answers.QuizID = id

	quiz, err := h.store.GetQuiz(id)
	if err != nil {
		errorResponse(w, "Quiz nicht gefunden", http.StatusNotFound)
		return
	}

	results := scoring.CalculateQuizResults(*quiz, answers)

	if err := h.store.SaveQuizResults(&results); err != nil {
		errorResponse(w, "Fehler beim Speichern", http.StatusInternalServerError)
		return
	}

	log.Printf("📊 Quiz %s ausgewertet: %d/%d richtig (%s)", id, results.Score, results.TotalQuestions, results.ReadinessLevel)
	jsonResponse(w, results, http.StatusOK)
}

func (h *Handler) GetQuizResults(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	results, err := h.store.GetQuizResults(id)
	if err != nil {
		errorResponse(w, "Keine Auswertung vorhanden", http.StatusNotFound)
		return
	}

	jsonResponse(w, results, http.StatusOK)
}

// === Schnappschuss-Endpoints ===

func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		errorResponse(w, "Ungültige Anfrage", http.StatusBadRequest)
		return
	}

	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	if err := h.store.SaveSnapshot(&snap); err != nil {
		errorResponse(w, "Fehler beim Speichern", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]string{"message": "Schnappschuss gespeichert"}, http.StatusCreated)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.LoadSnapshot()
	if err != nil {
		errorResponse(w, "Fehler beim Laden", http.StatusInternalServerError)
		return
	}
	if snap == nil {
		errorResponse(w, "Kein brauchbarer Schnappschuss vorhanden", http.StatusNotFound)
		return
	}

	jsonResponse(w, snap, http.StatusOK)
}
