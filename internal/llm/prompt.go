package llm

import (
	"fmt"
	"math"
	"strings"

	"pruefungscoach/internal/config"
	"pruefungscoach/internal/models"
)

// PromptBuilder baut die Prompts für Zusammenfassung und Quiz.
// Reine String-Konstruktion, kein Netzwerk, kein Zustand.
// Alle numerischen Vorgaben kommen aus der Konfiguration, dieselben
// Werte prüft später der Validator.
type PromptBuilder struct {
	gen config.Generation
}

// NewPromptBuilder erstellt einen neuen PromptBuilder
func NewPromptBuilder(gen config.Generation) *PromptBuilder {
	return &PromptBuilder{gen: gen}
}

// BuildSummaryPrompt baut den Prompt für die Zusammenfassung eines Dokuments
func (p *PromptBuilder) BuildSummaryPrompt(text, fileName string) string {
	return fmt.Sprintf(`Du bist ein Lernassistent. Analysiere das folgende Dokument und erstelle eine strukturierte Zusammenfassung zur Prüfungsvorbereitung.

Dokument: %s
---
%s
---

Anforderungen:
- %d bis %d zentrale Konzepte (key_concepts)
- mindestens %d Begriffsdefinitionen (definitions), jeweils mit Begriff und Erklärung
- eine Zusammenfassung (summary) aus %d bis %d Absätzen, Absätze durch Leerzeilen getrennt
- Eselsbrücken und Merkhilfen (memory_aids), wo sinnvoll

Antworte NUR mit einem JSON-Objekt in genau diesem Format, ohne Text davor oder danach:
{
  "title": "Titel des Dokuments",
  "key_concepts": ["Konzept 1", "Konzept 2"],
  "definitions": [
    {"term": "Begriff", "definition": "Erklärung des Begriffs"}
  ],
  "summary": "Erster Absatz.\n\nZweiter Absatz.",
  "memory_aids": ["Merkhilfe 1"]
}`,
		fileName,
		limitContent(text, 30000),
		p.gen.KeyConceptsMin, p.gen.KeyConceptsMax,
		p.gen.DefinitionsAsk,
		p.gen.SummaryParagraphsMin, p.gen.SummaryParagraphsMax)
}

// BuildQuizPrompt baut einen gemeinsamen Quiz-Prompt über alle Dokumente
func (p *PromptBuilder) BuildQuizPrompt(texts []models.ExtractedText) string {
	easy, medium, hard := p.DifficultyTargets(p.gen.QuizQuestionsTarget)

	// Inhalte mit festem Gesamtbudget kombinieren
	var combined strings.Builder
	maxTotalChars := 30000
	charsPerDoc := maxTotalChars / maxInt(len(texts), 1)
	if charsPerDoc > 8000 {
		charsPerDoc = 8000
	}
	if charsPerDoc < 2000 {
		charsPerDoc = 2000
	}

	for _, t := range texts {
		combined.WriteString(fmt.Sprintf("\n=== Dokument: %s ===\n", t.FileName))
		combined.WriteString(limitContent(t.Content, charsPerDoc))
		combined.WriteString("\n")
		if combined.Len() > maxTotalChars {
			break
		}
	}

	return fmt.Sprintf(`Du bist ein Prüfer. Erstelle ein Multiple-Choice-Quiz über ALLE folgenden Lernmaterialien.

Materialien:
%s

Anforderungen:
- genau %d Fragen
- Schwierigkeitsverteilung: %d easy, %d medium, %d hard
- jede Frage hat genau 4 Antwortoptionen und genau eine richtige Antwort (A, B, C oder D)
- jede Frage hat eine kurze Erklärung (explanation), warum die Antwort richtig ist
- jede Frage hat ein Thema (topic), damit Fragen später gruppiert werden können
- Fragen decken alle Dokumente ab, nicht nur das erste

Antworte NUR mit einem JSON-Objekt in genau diesem Format, ohne Text davor oder danach:
{
  "questions": [
    {
      "question": "Die Frage?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": "A",
      "explanation": "Warum A richtig ist.",
      "difficulty": "easy",
      "topic": "Thema der Frage"
    }
  ]
}`,
		combined.String(),
		p.gen.QuizQuestionsTarget,
		easy, medium, hard)
}

// DifficultyTargets berechnet die Soll-Anzahl pro Schwierigkeitsgrad durch
// Anwendung der konfigurierten Verteilung, jeweils auf die nächste ganze
// Zahl gerundet
func (p *PromptBuilder) DifficultyTargets(total int) (easy, medium, hard int) {
	easy = int(math.Round(float64(total) * p.gen.EasyRatio))
	medium = int(math.Round(float64(total) * p.gen.MediumRatio))
	hard = int(math.Round(float64(total) * p.gen.HardRatio))
	return
}

func limitContent(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "\n[... gekürzt ...]"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
