package models

import "time"

// ExtractedText repräsentiert den extrahierten Text eines Dokuments.
// Wird von der Extraktion erzeugt und danach nicht mehr verändert.
type ExtractedText struct {
	FileID           string  `json:"file_id"`
	FileName         string  `json:"file_name"`
	Content          string  `json:"content"`
	WordCount        int     `json:"word_count"`
	ExtractionMethod string  `json:"extraction_method"` // pdf, text
	Confidence       float64 `json:"confidence,omitempty"`
}

// Definition repräsentiert eine Begriffsdefinition aus einer Zusammenfassung
type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// DocumentSummary repräsentiert die generierte Zusammenfassung eines Dokuments.
// Die ID entspricht immer der FileID des Quelldokuments.
type DocumentSummary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	KeyConcepts []string     `json:"key_concepts"`
	Definitions []Definition `json:"definitions"`
	Summary     string       `json:"summary"`
	MemoryAids  []string     `json:"memory_aids"`
	Subject     string       `json:"subject,omitempty"`
}

// RevisionPack bündelt die Zusammenfassungen aller Dokumente.
// Die Reihenfolge der Dokumente entspricht der Eingabereihenfolge.
type RevisionPack struct {
	ID               string            `json:"id"`
	Documents        []DocumentSummary `json:"documents"`
	TotalReadingTime int               `json:"total_reading_time_minutes"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// AnswerOption ist ein Antwortbuchstabe A-D
type AnswerOption string

// Question repräsentiert eine Multiple-Choice-Frage
type Question struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Options       []string     `json:"options"` // genau 4
	CorrectAnswer AnswerOption `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	Difficulty    string       `json:"difficulty"` // easy, medium, hard
	Topic         string       `json:"topic,omitempty"`
}

// Quiz repräsentiert ein generiertes Quiz über alle Dokumente
type Quiz struct {
	ID          string     `json:"id"`
	Questions   []Question `json:"questions"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// UserAnswers repräsentiert die Antworten eines Quiz-Durchlaufs
type UserAnswers struct {
	QuizID         string                  `json:"quiz_id"`
	Answers        map[string]AnswerOption `json:"answers"` // Fragen-ID -> Buchstabe
	StartTime      time.Time               `json:"start_time"`
	EndTime        time.Time               `json:"end_time"`
	ElapsedSeconds int                     `json:"elapsed_seconds"`
}

// QuestionBreakdown ist die Auswertung einer einzelnen Frage
type QuestionBreakdown struct {
	Question   Question `json:"question"`
	UserAnswer string   `json:"user_answer"`
	IsCorrect  bool     `json:"is_correct"`
}

// QuizResults ist der vollständige, unveränderliche Auswertungs-Schnappschuss
// eines Quiz-Durchlaufs
type QuizResults struct {
	Quiz             Quiz                `json:"quiz"`
	UserAnswers      UserAnswers         `json:"user_answers"`
	Score            int                 `json:"score"`
	TotalQuestions   int                 `json:"total_questions"`
	Percentage       float64             `json:"percentage"`
	ReadinessLevel   string              `json:"readiness_level"`
	ReadinessMessage string              `json:"readiness_message"`
	ReadinessColor   string              `json:"readiness_color"`
	Breakdown        []QuestionBreakdown `json:"breakdown"`
	WeakAreas        []string            `json:"weak_areas"`
}

// Snapshot ist der opake Sitzungs-Schnappschuss für die Persistenz.
// Schnappschüsse älter als 24 Stunden gelten als unbrauchbar.
type Snapshot struct {
	Files          []string        `json:"files"`
	ExtractedTexts []ExtractedText `json:"extracted_texts"`
	Timestamp      time.Time       `json:"timestamp"`
}
