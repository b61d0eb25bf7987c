package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter erstellt den HTTP-Router mit allen Endpoints
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	// API-Version
	api := r.PathPrefix("/api/v1").Subrouter()

	// System
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Dokumente
	api.HandleFunc("/documents", h.GetDocuments).Methods("GET")
	api.HandleFunc("/documents", h.UploadDocument).Methods("POST")
	api.HandleFunc("/documents/scan", h.ScanDocumentsFolder).Methods("POST")
	api.HandleFunc("/documents/{id}", h.GetDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")

	// Wiederholungspakete
	api.HandleFunc("/packs", h.CreateRevisionPack).Methods("POST")
	api.HandleFunc("/packs/ws", h.CreateRevisionPackWS)
	api.HandleFunc("/packs/latest", h.GetLatestRevisionPack).Methods("GET")
	api.HandleFunc("/packs/{id}", h.GetRevisionPack).Methods("GET")

	// Quiz
	api.HandleFunc("/quizzes", h.CreateQuiz).Methods("POST")
	api.HandleFunc("/quizzes/{id}", h.GetQuiz).Methods("GET")
	api.HandleFunc("/quizzes/{id}/answers", h.SubmitAnswers).Methods("POST")
	api.HandleFunc("/quizzes/{id}/results", h.GetQuizResults).Methods("GET")

	// Schnappschuss
	api.HandleFunc("/snapshot", h.GetSnapshot).Methods("GET")
	api.HandleFunc("/snapshot", h.SaveSnapshot).Methods("POST")

	// Statische Dateien (Frontend)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/static")))

	// CORS für lokale Entwicklung
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}
