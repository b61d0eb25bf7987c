package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"pruefungscoach/internal/apperr"
	"pruefungscoach/internal/config"
	"pruefungscoach/internal/models"
)

// Validator prüft geparste Modell-Antworten gegen den strukturellen
// Vertrag. Es werden immer ALLE Verstöße gesammelt, nicht nur der erste.
type Validator struct {
	gen config.Generation
}

// NewValidator erstellt einen neuen Validator
func NewValidator(gen config.Generation) *Validator {
	return &Validator{gen: gen}
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// CountParagraphs zählt Absätze, getrennt durch Leerzeilen
func CountParagraphs(summary string) int {
	count := 0
	for _, part := range paragraphSplit.Split(summary, -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

// ValidateSummary prüft das rohe Objekt und baut daraus eine DocumentSummary.
// Bei Verstößen wird ein Structure-Fehler mit der vollständigen Liste geliefert.
func (v *Validator) ValidateSummary(raw json.RawMessage) (*models.DocumentSummary, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperr.Parse("Antwort ist kein JSON-Objekt", err)
	}

	var violations []string

	title := requireString(obj, "title", &violations)

	concepts := requireStringSlice(obj, "key_concepts", &violations)
	if _, ok := obj["key_concepts"]; ok {
		if n := len(concepts); n < v.gen.KeyConceptsMin || n > v.gen.KeyConceptsMax {
			violations = append(violations, fmt.Sprintf(
				"key_concepts: %d Einträge, erwartet %d bis %d", n, v.gen.KeyConceptsMin, v.gen.KeyConceptsMax))
		}
	}

	definitions := v.requireDefinitions(obj, &violations)

	summary := requireString(obj, "summary", &violations)
	if summary != "" {
		if n := CountParagraphs(summary); n < v.gen.SummaryParagraphsMin || n > v.gen.SummaryParagraphsMax {
			violations = append(violations, fmt.Sprintf(
				"summary: %d Absätze, erwartet %d bis %d", n, v.gen.SummaryParagraphsMin, v.gen.SummaryParagraphsMax))
		}
	}

	// memory_aids muss ein Array sein, darf aber leer sein
	memoryAids := []string{}
	if val, ok := obj["memory_aids"]; !ok {
		violations = append(violations, "memory_aids: Feld fehlt")
	} else if arr, ok := val.([]any); !ok {
		violations = append(violations, "memory_aids: kein Array")
	} else {
		for _, item := range arr {
			if s, ok := item.(string); ok {
				memoryAids = append(memoryAids, s)
			} else {
				violations = append(violations, "memory_aids: Eintrag ist kein String")
			}
		}
	}

	if len(violations) > 0 {
		return nil, apperr.Structure(violations)
	}

	return &models.DocumentSummary{
		Title:       title,
		KeyConcepts: concepts,
		Definitions: definitions,
		Summary:     summary,
		MemoryAids:  memoryAids,
		Subject:     TagSubject(title),
	}, nil
}

// ValidateQuiz prüft das rohe Objekt und baut daraus ein Quiz.
// ID und Zeitstempel vergibt der Aufrufer.
func (v *Validator) ValidateQuiz(raw json.RawMessage) (*models.Quiz, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperr.Parse("Antwort ist kein JSON-Objekt", err)
	}

	var violations []string

	rawQuestions, ok := obj["questions"].([]any)
	if !ok {
		violations = append(violations, "questions: Feld fehlt oder ist kein Array")
		return nil, apperr.Structure(violations)
	}

	if n := len(rawQuestions); n < v.gen.QuizQuestionsMin || n > v.gen.QuizQuestionsMax {
		violations = append(violations, fmt.Sprintf(
			"questions: %d Fragen, erwartet %d bis %d", n, v.gen.QuizQuestionsMin, v.gen.QuizQuestionsMax))
	}

	var questions []models.Question
	difficultyCount := map[string]int{}

	for i, rq := range rawQuestions {
		qObj, ok := rq.(map[string]any)
		if !ok {
			violations = append(violations, fmt.Sprintf("Frage %d: kein Objekt", i+1))
			continue
		}

		q := models.Question{ID: fmt.Sprintf("q%d", i+1)}
		if id, ok := qObj["id"].(string); ok && id != "" {
			q.ID = id
		}

		if s, ok := qObj["question"].(string); ok && strings.TrimSpace(s) != "" {
			q.Question = s
		} else {
			violations = append(violations, fmt.Sprintf("Frage %d: question fehlt oder leer", i+1))
		}

		if arr, ok := qObj["options"].([]any); ok {
			for _, o := range arr {
				if s, ok := o.(string); ok {
					q.Options = append(q.Options, s)
				}
			}
			if len(q.Options) != 4 {
				violations = append(violations, fmt.Sprintf("Frage %d: %d Optionen, erwartet genau 4", i+1, len(q.Options)))
			}
		} else {
			violations = append(violations, fmt.Sprintf("Frage %d: options fehlt oder ist kein Array", i+1))
		}

		if s, ok := qObj["correct_answer"].(string); ok && isAnswerLetter(s) {
			q.CorrectAnswer = models.AnswerOption(s)
		} else {
			violations = append(violations, fmt.Sprintf("Frage %d: correct_answer muss A, B, C oder D sein", i+1))
		}

		if s, ok := qObj["explanation"].(string); ok && strings.TrimSpace(s) != "" {
			q.Explanation = s
		} else {
			violations = append(violations, fmt.Sprintf("Frage %d: explanation fehlt oder leer", i+1))
		}

		if s, ok := qObj["difficulty"].(string); ok && (s == "easy" || s == "medium" || s == "hard") {
			q.Difficulty = s
			difficultyCount[s]++
		} else {
			violations = append(violations, fmt.Sprintf("Frage %d: difficulty muss easy, medium oder hard sein", i+1))
		}

		if s, ok := qObj["topic"].(string); ok {
			q.Topic = s
		}

		questions = append(questions, q)
	}

	// Verteilung nur prüfen, wenn genug Fragen da sind
	if n := len(rawQuestions); n >= v.gen.QuizQuestionsMin {
		checkDistribution := func(name string, count int, target float64) {
			pct := float64(count) / float64(n) * 100
			if math.Abs(pct-target*100) > v.gen.DistributionTolerance {
				violations = append(violations, fmt.Sprintf(
					"Schwierigkeitsverteilung: %.0f%% %s, erwartet %.0f%% ±%.0f", pct, name, target*100, v.gen.DistributionTolerance))
			}
		}
		checkDistribution("easy", difficultyCount["easy"], v.gen.EasyRatio)
		checkDistribution("medium", difficultyCount["medium"], v.gen.MediumRatio)
		checkDistribution("hard", difficultyCount["hard"], v.gen.HardRatio)
	}

	if len(violations) > 0 {
		return nil, apperr.Structure(violations)
	}

	return &models.Quiz{Questions: questions}, nil
}

func isAnswerLetter(s string) bool {
	return s == "A" || s == "B" || s == "C" || s == "D"
}

func requireString(obj map[string]any, field string, violations *[]string) string {
	val, ok := obj[field]
	if !ok {
		*violations = append(*violations, field+": Feld fehlt")
		return ""
	}
	s, ok := val.(string)
	if !ok {
		*violations = append(*violations, field+": kein String")
		return ""
	}
	if strings.TrimSpace(s) == "" {
		*violations = append(*violations, field+": leer")
		return ""
	}
	return s
}

func requireStringSlice(obj map[string]any, field string, violations *[]string) []string {
	val, ok := obj[field]
	if !ok {
		*violations = append(*violations, field+": Feld fehlt")
		return nil
	}
	arr, ok := val.([]any)
	if !ok {
		*violations = append(*violations, field+": kein Array")
		return nil
	}
	var result []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			result = append(result, s)
		} else {
			*violations = append(*violations, field+": Eintrag ist kein String")
		}
	}
	return result
}

func (v *Validator) requireDefinitions(obj map[string]any, violations *[]string) []models.Definition {
	val, ok := obj["definitions"]
	if !ok {
		*violations = append(*violations, "definitions: Feld fehlt")
		return nil
	}
	arr, ok := val.([]any)
	if !ok {
		*violations = append(*violations, "definitions: kein Array")
		return nil
	}
	if len(arr) < 1 {
		*violations = append(*violations, "definitions: mindestens ein Eintrag erwartet")
		return nil
	}

	var defs []models.Definition
	for i, item := range arr {
		dObj, ok := item.(map[string]any)
		if !ok {
			*violations = append(*violations, fmt.Sprintf("definitions[%d]: kein Objekt", i))
			continue
		}
		term, _ := dObj["term"].(string)
		def, _ := dObj["definition"].(string)
		if strings.TrimSpace(term) == "" {
			*violations = append(*violations, fmt.Sprintf("definitions[%d]: term leer", i))
		}
		if strings.TrimSpace(def) == "" {
			*violations = append(*violations, fmt.Sprintf("definitions[%d]: definition leer", i))
		}
		defs = append(defs, models.Definition{Term: term, Definition: def})
	}
	return defs
}

// subjectKeywords ordnet Fachgebiete nach Titel-Stichwörtern zu.
// Reihenfolge ist relevant: der erste Treffer gewinnt.
var subjectKeywords = []struct {
	Subject  string
	Keywords []string
}{
	{"Mathematics", []string{"mathe", "math", "algebra", "geometrie", "geometry", "analysis", "calculus", "statistik", "statistics", "stochastik"}},
	{"Science", []string{"physik", "physics", "chemie", "chemistry", "biologie", "biology", "science", "naturwissenschaft", "ökologie"}},
	{"History", []string{"geschichte", "history", "historisch", "weltkrieg", "mittelalter", "revolution", "antike"}},
	{"Literature", []string{"literatur", "literature", "roman", "novel", "poesie", "poetry", "drama", "lyrik"}},
	{"Computer", []string{"informatik", "computer", "programmier", "programming", "software", "algorithm", "datenbank", "database", "netzwerk", "network"}},
	{"Language", []string{"sprache", "language", "grammatik", "grammar", "vokabel", "vocabulary", "englisch", "english", "französisch", "spanisch"}},
}

// TagSubject leitet das Fachgebiet aus dem Titel ab, Groß-/Kleinschreibung
// spielt keine Rolle. Ohne Treffer: "General".
func TagSubject(title string) string {
	lower := strings.ToLower(title)
	for _, entry := range subjectKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				return entry.Subject
			}
		}
	}
	return "General"
}
