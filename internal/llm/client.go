package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"pruefungscoach/internal/apperr"
)

const (
	defaultBaseURL  = "https://api.anthropic.com/v1/messages"
	apiVersion      = "2023-06-01"
	attemptTimeout  = 120 * time.Second
	backoffBase     = 1000 * time.Millisecond
	maxJitterMillis = 1000
)

// Client definiert das Interface zum Generierungsdienst
type Client interface {
	// Complete sendet einen Prompt und liefert den Text der Antwort
	Complete(ctx context.Context, prompt string, opts *CompleteOptions) (string, error)

	// Model gibt das konfigurierte Modell zurück
	Model() string
}

// CompleteOptions enthält optionale Parameter für eine Anfrage
type CompleteOptions struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxRetries  int     `json:"max_retries,omitempty"`
}

// ClientConfig konfiguriert den ClaudeClient
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// ClaudeClient implementiert Client gegen die Claude-Messages-API
type ClaudeClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	timeout    time.Duration
	httpClient *http.Client

	// für Tests austauschbar
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewClaudeClient erstellt einen neuen Client. Ohne API-Schlüssel
// schlägt die Konstruktion fehl, das wird nie wiederholt.
func NewClaudeClient(cfg ClientConfig) (*ClaudeClient, error) {
	if cfg.APIKey == "" {
		return nil, apperr.Configuration("kein API-Schlüssel konfiguriert (ANTHROPIC_API_KEY setzen)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = attemptTimeout
	}

	return &ClaudeClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{}, // Zeitlimit pro Versuch über den Context
		sleep:      time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Intn(maxJitterMillis)) * time.Millisecond
		},
	}, nil
}

func (c *ClaudeClient) Model() string {
	return c.model
}

// attemptState bildet den Versuchs-Automaten ab:
// Idle -> Sending -> {Succeeded | Backoff -> Sending | Failed}
type attemptState int

const (
	stateIdle attemptState = iota
	stateSending
	stateBackoff
	stateSucceeded
	stateFailed
)

// Complete führt Versuche 0..MaxRetries aus. Wiederholbare Fehler lösen
// exponentielles Backoff mit Jitter aus, alle anderen brechen sofort ab.
// Der Aufrufer sieht nie einzelne Versuche, nur den Enderfolg oder den
// letzten klassifizierten Fehler.
func (c *ClaudeClient) Complete(ctx context.Context, prompt string, opts *CompleteOptions) (string, error) {
	maxRetries := c.maxRetries
	if opts != nil && opts.MaxRetries > 0 {
		maxRetries = opts.MaxRetries
	}

	state := stateIdle
	attempt := 0
	var text string
	var lastErr *apperr.AppError

	for {
		switch state {
		case stateIdle:
			state = stateSending

		case stateSending:
			text, lastErr = c.sendOnce(ctx, prompt, opts)
			switch {
			case lastErr == nil:
				state = stateSucceeded
			case ctx.Err() != nil:
				// Aufrufer hat abgebrochen, nicht wiederholen
				lastErr.Retryable = false
				state = stateFailed
			case lastErr.Retryable && attempt < maxRetries:
				state = stateBackoff
			default:
				state = stateFailed
			}

		case stateBackoff:
			delay := backoffBase*(1<<attempt) + c.jitter()
			log.Printf("   [Claude] 🔄 Versuch %d/%d fehlgeschlagen (%s), warte %v...",
				attempt+1, maxRetries+1, lastErr.Type, delay)
			c.sleep(delay)
			attempt++
			state = stateSending

		case stateSucceeded:
			return text, nil

		case stateFailed:
			log.Printf("   [Claude] ❌ Endgültig fehlgeschlagen: %v", lastErr)
			return "", lastErr
		}
	}
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// sendOnce führt genau einen Versuch mit hartem Zeitlimit aus und
// klassifiziert das Ergebnis
func (c *ClaudeClient) sendOnce(ctx context.Context, prompt string, opts *CompleteOptions) (string, *apperr.AppError) {
	maxTokens := 4096
	temperature := 0.0
	if opts != nil {
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
		temperature = opts.Temperature
	}

	reqBody := claudeRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.Parse("konnte Anfrage nicht serialisieren", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, "POST", c.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", apperr.Network(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			log.Printf("   [Claude] ⏱️ Zeitlimit nach %v", time.Since(start))
			return "", apperr.Timeout(c.timeout)
		}
		log.Printf("   [Claude] ❌ Netzwerk-Fehler nach %v: %v", time.Since(start), err)
		return "", apperr.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("   [Claude] ❌ Status %d nach %v", resp.StatusCode, time.Since(start))
		return "", apperr.HTTP(resp.StatusCode, string(body))
	}

	var result claudeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperr.Parse("konnte Antwort nicht lesen", err)
	}

	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			log.Printf("   [Claude] ✓ Antwort nach %v (%d Zeichen)", time.Since(start), len(block.Text))
			return block.Text, nil
		}
	}

	return "", apperr.EmptyResponse()
}
