package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"pruefungscoach/internal/models"

	_ "modernc.org/sqlite"
)

// snapshotMaxAge: ältere Schnappschüsse gelten als unbrauchbar
const snapshotMaxAge = 24 * time.Hour

// Storage definiert das Interface für Datenpersistenz
type Storage interface {
	// Extrahierte Texte
	SaveExtractedText(text *models.ExtractedText) error
	GetExtractedText(fileID string) (*models.ExtractedText, error)
	GetAllExtractedTexts() ([]models.ExtractedText, error)
	DeleteExtractedText(fileID string) error

	// Wiederholungspakete
	SaveRevisionPack(pack *models.RevisionPack) error
	GetRevisionPack(id string) (*models.RevisionPack, error)
	GetLatestRevisionPack() (*models.RevisionPack, error)

	// Quizze
	SaveQuiz(quiz *models.Quiz) error
	GetQuiz(id string) (*models.Quiz, error)

	// Ergebnisse
	SaveQuizResults(results *models.QuizResults) error
	GetQuizResults(quizID string) (*models.QuizResults, error)

	// Sitzungs-Schnappschuss
	SaveSnapshot(snap *models.Snapshot) error
	LoadSnapshot() (*models.Snapshot, error)

	Close() error
}

// SQLiteStorage implementiert Storage mit SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage erstellt eine neue SQLite-Storage-Instanz
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		file_id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		content TEXT,
		word_count INTEGER,
		extraction_method TEXT,
		confidence REAL,
		created_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS revision_packs (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		generated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		generated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_results (
		quiz_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Extrahierte Texte

func (s *SQLiteStorage) SaveExtractedText(text *models.ExtractedText) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO documents (file_id, file_name, content, word_count, extraction_method, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, text.FileID, text.FileName, text.Content, text.WordCount, text.ExtractionMethod, text.Confidence, time.Now())
	return err
}

func (s *SQLiteStorage) GetExtractedText(fileID string) (*models.ExtractedText, error) {
	var text models.ExtractedText
	err := s.db.QueryRow(`
		SELECT file_id, file_name, content, word_count, extraction_method, confidence
		FROM documents WHERE file_id = ?
	`, fileID).Scan(&text.FileID, &text.FileName, &text.Content, &text.WordCount, &text.ExtractionMethod, &text.Confidence)
	if err != nil {
		return nil, err
	}
	return &text, nil
}

func (s *SQLiteStorage) GetAllExtractedTexts() ([]models.ExtractedText, error) {
	rows, err := s.db.Query(`
		SELECT file_id, file_name, content, word_count, extraction_method, confidence
		FROM documents ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []models.ExtractedText
	for rows.Next() {
		var text models.ExtractedText
		if err := rows.Scan(&text.FileID, &text.FileName, &text.Content, &text.WordCount, &text.ExtractionMethod, &text.Confidence); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

func (s *SQLiteStorage) DeleteExtractedText(fileID string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE file_id = ?`, fileID)
	return err
}

// Wiederholungspakete

func (s *SQLiteStorage) SaveRevisionPack(pack *models.RevisionPack) error {
	data, err := json.Marshal(pack)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO revision_packs (id, data, generated_at) VALUES (?, ?, ?)
	`, pack.ID, string(data), pack.GeneratedAt)
	return err
}

func (s *SQLiteStorage) GetRevisionPack(id string) (*models.RevisionPack, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM revision_packs WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, err
	}
	var pack models.RevisionPack
	if err := json.Unmarshal([]byte(data), &pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

func (s *SQLiteStorage) GetLatestRevisionPack() (*models.RevisionPack, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM revision_packs ORDER BY generated_at DESC LIMIT 1`).Scan(&data)
	if err != nil {
		return nil, err
	}
	var pack models.RevisionPack
	if err := json.Unmarshal([]byte(data), &pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

// Quizze

func (s *SQLiteStorage) SaveQuiz(quiz *models.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO quizzes (id, data, generated_at) VALUES (?, ?, ?)
	`, quiz.ID, string(data), quiz.GeneratedAt)
	return err
}

func (s *SQLiteStorage) GetQuiz(id string) (*models.Quiz, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM quizzes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, err
	}
	var quiz models.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Ergebnisse

func (s *SQLiteStorage) SaveQuizResults(results *models.QuizResults) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO quiz_results (quiz_id, data, created_at) VALUES (?, ?, ?)
	`, results.Quiz.ID, string(data), time.Now())
	return err
}

func (s *SQLiteStorage) GetQuizResults(quizID string) (*models.QuizResults, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM quiz_results WHERE quiz_id = ?`, quizID).Scan(&data)
	if err != nil {
		return nil, err
	}
	var results models.QuizResults
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// Sitzungs-Schnappschuss

func (s *SQLiteStorage) SaveSnapshot(snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (id, data, saved_at) VALUES (1, ?, ?)
	`, string(data), snap.Timestamp)
	return err
}

// LoadSnapshot liefert den Schnappschuss, oder (nil, nil) wenn keiner
// existiert oder der vorhandene älter als 24 Stunden ist
func (s *SQLiteStorage) LoadSnapshot() (*models.Snapshot, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}

	if time.Since(snap.Timestamp) > snapshotMaxAge {
		return nil, nil
	}

	return &snap, nil
}
