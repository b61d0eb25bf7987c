package config

import (
	"encoding/json"
	"os"
)

// Config enthält alle Konfigurationseinstellungen
type Config struct {
	// Server-Einstellungen
	ServerPort string `json:"server_port"`

	// Pfade
	DocumentsPath string `json:"documents_path"`
	DatabasePath  string `json:"database_path"`

	// Generierungsdienst
	APIKey     string `json:"-"` // nur über Umgebungsvariable, nie in der Datei
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	MaxRetries int    `json:"max_retries"`

	// Generierungs-Grenzen
	Generation Generation `json:"generation"`
}

// Generation enthält alle numerischen Grenzen der Generierung.
// Prompt und Validator lesen dieselben Werte, damit Anforderung und
// Prüfung nicht auseinanderlaufen.
type Generation struct {
	KeyConceptsMin        int     `json:"key_concepts_min"`
	KeyConceptsMax        int     `json:"key_concepts_max"`
	DefinitionsAsk        int     `json:"definitions_ask"` // Anzahl, die der Prompt anfordert; akzeptiert wird ab 1
	SummaryParagraphsMin  int     `json:"summary_paragraphs_min"`
	SummaryParagraphsMax  int     `json:"summary_paragraphs_max"`
	QuizQuestionsMin      int     `json:"quiz_questions_min"`
	QuizQuestionsMax      int     `json:"quiz_questions_max"`
	QuizQuestionsTarget   int     `json:"quiz_questions_target"`
	EasyRatio             float64 `json:"easy_ratio"`
	MediumRatio           float64 `json:"medium_ratio"`
	HardRatio             float64 `json:"hard_ratio"`
	DistributionTolerance float64 `json:"distribution_tolerance"` // Prozentpunkte
	DocumentDelaySeconds  int     `json:"document_delay_seconds"`
	WordsPerMinute        int     `json:"words_per_minute"`
	MaxTokens             int     `json:"max_tokens"`
	Temperature           float64 `json:"temperature"`
}

// Default gibt die Standardkonfiguration zurück
func Default() *Config {
	return &Config{
		ServerPort:    "8080",
		DocumentsPath: "Lernmaterial",
		DatabasePath:  "pruefungscoach.db",
		BaseURL:       "https://api.anthropic.com/v1/messages",
		Model:         "claude-3-5-sonnet-20241022",
		MaxRetries:    3,
		Generation: Generation{
			KeyConceptsMin:        5,
			KeyConceptsMax:        10,
			DefinitionsAsk:        3,
			SummaryParagraphsMin:  2,
			SummaryParagraphsMax:  4,
			QuizQuestionsMin:      10,
			QuizQuestionsMax:      15,
			QuizQuestionsTarget:   12,
			EasyRatio:             0.4,
			MediumRatio:           0.4,
			HardRatio:             0.2,
			DistributionTolerance: 10,
			DocumentDelaySeconds:  3,
			WordsPerMinute:        200,
			MaxTokens:             4096,
			Temperature:           0.3,
		},
	}
}

// Load lädt die Konfiguration aus einer Datei und wendet danach
// Umgebungsvariablen an (Umgebung gewinnt)
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		cfg.applyEnv()
		return cfg, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		cfg.applyEnv()
		return cfg, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save speichert die Konfiguration in eine Datei
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CLAUDE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.ServerPort = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("DOCUMENTS_PATH"); v != "" {
		c.DocumentsPath = v
	}
}
