package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"rootline/internal/database"
	"time"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Users      []UserBackup     `json:"users"`
	Documents  []DocumentBackup `json:"documents"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DocumentBackup represents one document-store row for backup. The JSON is
// carried verbatim; the backup tool never interprets document shapes.
type DocumentBackup struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BackupService handles database backup and restore operations. Sessions
// and reset tokens are ephemeral and deliberately excluded.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// GetDB returns the database connection for direct queries
func (s *BackupService) GetDB() *database.DB {
	return s.db
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter streams a complete backup as JSON (for HTTP downloads)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}

	if err := s.exportDocuments(backup); err != nil {
		return fmt.Errorf("failed to export documents: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d documents", len(backup.Users), len(backup.Documents))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader (for file uploads)
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Users first so document ownership references stay meaningful
	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}

	if err := s.importDocuments(backup.Documents); err != nil {
		return fmt.Errorf("failed to import documents: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), is_admin, created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportDocuments(backup *BackupData) error {
	query := "SELECT collection, id, data, updated_at FROM documents ORDER BY collection, id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d DocumentBackup
		var data []byte
		if err := rows.Scan(&d.Collection, &d.ID, &data, &d.UpdatedAt); err != nil {
			return err
		}
		d.Data = json.RawMessage(data)
		backup.Documents = append(backup.Documents, d)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(users []UserBackup) error {
	for _, u := range users {
		// Skip users that already exist (match by email)
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", u.Email).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			log.Printf("Skipping existing user: %s", u.Email)
			continue
		}

		query := `
			INSERT INTO users (email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := s.db.Exec(query, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.IsAdmin, u.CreatedAt, u.UpdatedAt); err != nil {
			return err
		}
	}
	log.Printf("Imported %d users", len(users))
	return nil
}

func (s *BackupService) importDocuments(documents []DocumentBackup) error {
	for _, d := range documents {
		if _, err := s.db.Exec("DELETE FROM documents WHERE collection = ? AND id = ?", d.Collection, d.ID); err != nil {
			return err
		}
		query := "INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)"
		if _, err := s.db.Exec(query, d.Collection, d.ID, string(d.Data), d.UpdatedAt); err != nil {
			return err
		}
	}
	log.Printf("Imported %d documents", len(documents))
	return nil
}
