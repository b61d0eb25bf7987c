// Package scoring berechnet Quiz-Ergebnisse, Bereitschafts-Stufe und
// schwache Themen. Alle Funktionen sind rein: kein I/O, kein geteilter
// Zustand, beliebig parallel aufrufbar.
package scoring

import (
	"strings"

	"pruefungscoach/internal/models"
)

// NoAnswer kennzeichnet eine nicht beantwortete Frage in der Auswertung
const NoAnswer = "No answer"

// Readiness ist die qualitative Einstufung eines Quiz-Ergebnisses
type Readiness struct {
	Level   string
	Message string
	Color   string
}

// CalculateQuizResults wertet einen Quiz-Durchlauf vollständig aus
func CalculateQuizResults(quiz models.Quiz, answers models.UserAnswers) models.QuizResults {
	breakdown := make([]models.QuestionBreakdown, 0, len(quiz.Questions))
	score := 0

	for _, q := range quiz.Questions {
		userAnswer := NoAnswer
		correct := false
		if a, ok := answers.Answers[q.ID]; ok && a != "" {
			userAnswer = string(a)
			correct = a == q.CorrectAnswer
		}
		if correct {
			score++
		}
		breakdown = append(breakdown, models.QuestionBreakdown{
			Question:   q,
			UserAnswer: userAnswer,
			IsCorrect:  correct,
		})
	}

	total := len(quiz.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = float64(score) / float64(total) * 100
	}

	readiness := DetermineReadinessLevel(percentage)

	return models.QuizResults{
		Quiz:             quiz,
		UserAnswers:      answers,
		Score:            score,
		TotalQuestions:   total,
		Percentage:       percentage,
		ReadinessLevel:   readiness.Level,
		ReadinessMessage: readiness.Message,
		ReadinessColor:   readiness.Color,
		Breakdown:        breakdown,
		WeakAreas:        IdentifyWeakAreas(breakdown),
	}
}

// DetermineReadinessLevel ordnet den Prozentwert einer Stufe zu.
// Die Bänder sind unten inklusiv und oben exklusiv, nur das oberste
// schließt 100 mit ein.
func DetermineReadinessLevel(percentage float64) Readiness {
	switch {
	case percentage >= 90:
		return Readiness{
			Level:   "excellent",
			Message: "Ausgezeichnet! Du bist bereit für die Prüfung. 🎉",
			Color:   "green",
		}
	case percentage >= 70:
		return Readiness{
			Level:   "good",
			Message: "Gut! Eine kurze Wiederholung der schwachen Themen, dann passt es. 👍",
			Color:   "yellow",
		}
	case percentage >= 50:
		return Readiness{
			Level:   "moderate",
			Message: "Solide Basis, aber die schwachen Themen brauchen noch eine Runde.",
			Color:   "orange",
		}
	default:
		return Readiness{
			Level:   "needs-work",
			Message: "Noch nicht bereit. Nimm dir die Materialien nochmal gründlich vor.",
			Color:   "red",
		}
	}
}

// IdentifyWeakAreas sammelt die Themen aller falsch beantworteten Fragen,
// ohne Duplikate, in der Reihenfolge des ersten Auftretens. Fragen ohne
// Thema werden übersprungen.
func IdentifyWeakAreas(breakdown []models.QuestionBreakdown) []string {
	seen := make(map[string]bool)
	areas := []string{}
	for _, b := range breakdown {
		if b.IsCorrect {
			continue
		}
		topic := strings.TrimSpace(b.Question.Topic)
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		areas = append(areas, topic)
	}
	return areas
}
