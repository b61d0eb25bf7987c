package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pruefungscoach/internal/apperr"
	"pruefungscoach/internal/config"
	"pruefungscoach/internal/models"
)

// ProgressFunc meldet den Fortschritt der Paket-Generierung pro Dokument
type ProgressFunc func(index, total int, fileName string, err error)

// Generator orchestriert die Generierung von Zusammenfassungen und Quizzen.
// Dokumente werden strikt nacheinander verarbeitet, mit fester Pause
// zwischen den Aufrufen, um den Dienst nicht mit Bursts zu treffen.
type Generator struct {
	client    Client
	prompts   *PromptBuilder
	validator *Validator
	gen       config.Generation
	docDelay  time.Duration

	// für Tests austauschbar
	sleep func(time.Duration)
	now   func() time.Time
	newID func() string
}

// NewGenerator erstellt einen neuen Generator
func NewGenerator(client Client, gen config.Generation) *Generator {
	delay := time.Duration(gen.DocumentDelaySeconds) * time.Second
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Generator{
		client:    client,
		prompts:   NewPromptBuilder(gen),
		validator: NewValidator(gen),
		gen:       gen,
		docDelay:  delay,
		sleep:     time.Sleep,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// GenerateSummary erstellt die Zusammenfassung eines einzelnen Dokuments.
// Client-Fehler werden unverändert weitergereicht, Validierungsfehler
// bekommen den Dateinamen als Kontext.
func (g *Generator) GenerateSummary(ctx context.Context, text models.ExtractedText) (*models.DocumentSummary, error) {
	prompt := g.prompts.BuildSummaryPrompt(text.Content, text.FileName)

	reply, err := g.client.Complete(ctx, prompt, &CompleteOptions{
		MaxTokens:   g.gen.MaxTokens,
		Temperature: g.gen.Temperature,
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, wrapValidation(err, text.FileName)
	}

	summary, err := g.validator.ValidateSummary(raw)
	if err != nil {
		return nil, wrapValidation(err, text.FileName)
	}

	summary.ID = text.FileID
	return summary, nil
}

// BuildRevisionPack verarbeitet alle Dokumente nacheinander zu einem
// Wiederholungspaket. Scheitert ein Dokument, wird ein Platzhalter
// eingesetzt; das Paket enthält immer eine Zusammenfassung pro Dokument,
// in Eingabereihenfolge.
func (g *Generator) BuildRevisionPack(ctx context.Context, texts []models.ExtractedText, progress ProgressFunc) (*models.RevisionPack, error) {
	if len(texts) == 0 {
		return nil, apperr.EmptyInput("keine Dokumente übergeben")
	}

	log.Printf("   [Generator] 📚 Erstelle Wiederholungspaket für %d Dokumente...", len(texts))

	documents := make([]models.DocumentSummary, 0, len(texts))
	totalWords := 0

	for i, text := range texts {
		totalWords += text.WordCount

		if i > 0 {
			g.sleep(g.docDelay)
		}

		log.Printf("   [Generator] [%d/%d] 🔍 Fasse zusammen: %s", i+1, len(texts), text.FileName)
		start := g.now()

		summary, err := g.GenerateSummary(ctx, text)
		if err != nil {
			log.Printf("   [Generator] [%d/%d] ❌ Fehler nach %v: %v", i+1, len(texts), time.Since(start), err)
			documents = append(documents, placeholderSummary(text))
		} else {
			log.Printf("   [Generator] [%d/%d] ✓ Fertig in %v (%d Konzepte)", i+1, len(texts), time.Since(start), len(summary.KeyConcepts))
			documents = append(documents, *summary)
		}

		if progress != nil {
			progress(i+1, len(texts), text.FileName, err)
		}
	}

	wpm := g.gen.WordsPerMinute
	if wpm <= 0 {
		wpm = 200
	}

	return &models.RevisionPack{
		ID:               g.newID(),
		Documents:        documents,
		TotalReadingTime: (totalWords + wpm - 1) / wpm, // aufgerundet
		GeneratedAt:      g.now(),
	}, nil
}

// GenerateQuiz erstellt ein Quiz über alle Dokumente mit einem einzigen
// Aufruf. Anders als beim Paket gibt es hier keinen Platzhalter-Modus:
// jeder Fehler bricht die gesamte Operation ab, ein halbes Quiz ist
// wertlos.
func (g *Generator) GenerateQuiz(ctx context.Context, texts []models.ExtractedText) (*models.Quiz, error) {
	if len(texts) == 0 {
		return nil, apperr.EmptyInput("keine Dokumente übergeben")
	}

	// Vor dem Remote-Aufruf prüfen: aus lauter leeren Texten wird kein Quiz
	allEmpty := true
	for _, t := range texts {
		if strings.TrimSpace(t.Content) != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return nil, apperr.EmptyContent("alle Dokumente sind leer, kein Quiz möglich")
	}

	log.Printf("   [Generator] 📝 Erstelle Quiz aus %d Dokumenten...", len(texts))

	prompt := g.prompts.BuildQuizPrompt(texts)
	reply, err := g.client.Complete(ctx, prompt, &CompleteOptions{
		MaxTokens:   g.gen.MaxTokens,
		Temperature: g.gen.Temperature,
	})
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, err
	}

	quiz, err := g.validator.ValidateQuiz(raw)
	if err != nil {
		return nil, err
	}

	quiz.ID = g.newID()
	quiz.GeneratedAt = g.now()

	log.Printf("   [Generator] ✓ Quiz mit %d Fragen erstellt", len(quiz.Questions))
	return quiz, nil
}

// placeholderSummary ersetzt eine fehlgeschlagene Zusammenfassung, damit
// das Paket vollständig bleibt
func placeholderSummary(text models.ExtractedText) models.DocumentSummary {
	return models.DocumentSummary{
		ID:          text.FileID,
		Title:       text.FileName,
		KeyConcepts: []string{"Content extraction failed"},
		Definitions: []models.Definition{},
		Summary:     "Für dieses Dokument konnte keine Zusammenfassung erstellt werden. Bitte den Inhalt manuell wiederholen.",
		MemoryAids:  []string{},
		Subject:     "Unknown",
	}
}

func wrapValidation(err error, fileName string) error {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr.WithFile(fileName)
	}
	return fmt.Errorf("ungültige Antwort für %s: %w", fileName, err)
}
