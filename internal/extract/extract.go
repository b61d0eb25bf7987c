// Package extract liest PDF- und Textdateien ein und erzeugt daraus
// ExtractedText-Datensätze für die Generierungs-Pipeline.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"pruefungscoach/internal/models"
)

// Extractor extrahiert Text aus Dokumenten
type Extractor struct {
	documentsPath string
}

// NewExtractor erstellt einen neuen Extractor
func NewExtractor(documentsPath string) *Extractor {
	return &Extractor{documentsPath: documentsPath}
}

// CountWords zählt Wörter (durch Whitespace getrennt)
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// ExtractFromReader extrahiert Text aus einem Upload. PDF-Dateien werden
// über den PDF-Reader verarbeitet, alles andere als Klartext gelesen.
func (e *Extractor) ExtractFromReader(reader io.Reader, filename string) (*models.ExtractedText, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return e.extractPDF(data, filename)
	}
	return e.extractPlainText(data, filename)
}

// ExtractFile extrahiert Text aus einer Datei auf der Platte
func (e *Extractor) ExtractFile(path string) (*models.ExtractedText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractFromReader(bytes.NewReader(data), filepath.Base(path))
}

// ExtractDirectory extrahiert alle PDF- und Textdateien eines Verzeichnisses
func (e *Extractor) ExtractDirectory(dirPath string) ([]models.ExtractedText, error) {
	var texts []models.ExtractedText

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		name := strings.ToLower(info.Name())
		if !strings.HasSuffix(name, ".pdf") && !strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, ".md") {
			return nil
		}

		text, err := e.ExtractFile(path)
		if err != nil {
			// Fehler loggen, aber fortfahren
			log.Printf("   [Extract] ⚠️ Konnte %s nicht verarbeiten: %v", path, err)
			return nil
		}

		texts = append(texts, *text)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return texts, nil
}

func (e *Extractor) extractPDF(data []byte, filename string) (*models.ExtractedText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("fehler beim Lesen der PDF: %w", err)
	}

	var content strings.Builder
	totalPages := r.NumPage()
	pagesWithText := 0

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pagesWithText++
		}

		content.WriteString(text)
		content.WriteString("\n")
	}

	// Konfidenz: Anteil der Seiten, aus denen Text herauskam.
	// Gescannte PDFs ohne Textebene landen nahe 0.
	confidence := 0.0
	if totalPages > 0 {
		confidence = float64(pagesWithText) / float64(totalPages)
	}

	extracted := content.String()
	return &models.ExtractedText{
		FileID:           uuid.NewString(),
		FileName:         filename,
		Content:          extracted,
		WordCount:        CountWords(extracted),
		ExtractionMethod: "pdf",
		Confidence:       confidence,
	}, nil
}

func (e *Extractor) extractPlainText(data []byte, filename string) (*models.ExtractedText, error) {
	content := string(data)
	return &models.ExtractedText{
		FileID:           uuid.NewString(),
		FileName:         filename,
		Content:          content,
		WordCount:        CountWords(content),
		ExtractionMethod: "text",
		Confidence:       1.0,
	}, nil
}
