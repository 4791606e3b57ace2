package vcs

import (
	"fmt"
	"strings"

	"codevault/internal/database/sqlc"
)

const (
	// DefaultLanguage is stored when a file is created without a language tag.
	DefaultLanguage = "plaintext"

	initialMessage  = "Initial upload"
	autosaveMessage = "Auto-save"
	publishMessage  = "Update file"
)

// Service is the commit engine and query façade for team code files.
// It owns hashing, ordering and event emission; persistence is delegated to
// Database and fan-out to Notifier.
type Service struct {
	database Database
	notifier Notifier
	logger   Logger
	clock    Clock
	hashes   HashGenerator
}

// NewService creates a new Service with the provided dependencies.
// Nil notifier, logger, clock and hashes fall back to their no-op or real
// defaults.
func NewService(database Database, notifier Notifier, logger Logger, clock Clock, hashes HashGenerator) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if hashes == nil {
		hashes = TokenHashGenerator{}
	}
	return &Service{
		database: database,
		notifier: notifier,
		logger:   logger,
		clock:    clock,
		hashes:   hashes,
	}
}

// CreateFileRequest carries the inputs of CreateFile.
type CreateFileRequest struct {
	TeamID         int64
	FileName       string
	Path           string
	Language       string
	AuthorID       int64
	InitialContent string
}

func (r CreateFileRequest) validate() error {
	var missing []string
	if r.TeamID == 0 {
		missing = append(missing, "team_id")
	}
	if strings.TrimSpace(r.FileName) == "" {
		missing = append(missing, "file_name")
	}
	if strings.TrimSpace(r.Path) == "" {
		missing = append(missing, "path")
	}
	if r.AuthorID == 0 {
		missing = append(missing, "author_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// CreateFile registers a file (replacing the registry row if the team
// already has a file at that path) and records its initial content as a
// draft commit.
func (s *Service) CreateFile(req CreateFileRequest) (*sqlc.File, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = DefaultLanguage
	}

	now := s.clock.Now()
	authorID := req.AuthorID
	file, commit, err := s.database.CreateFileWithCommit(
		&sqlc.File{
			TeamID:    req.TeamID,
			Name:      req.FileName,
			Path:      req.Path,
			Language:  language,
			CreatedBy: req.AuthorID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		&sqlc.Commit{
			Branch:    string(Drafts),
			AuthorID:  &authorID,
			Message:   initialMessage,
			Content:   req.InitialContent,
			Hash:      s.hashes.DraftHash(now),
			CreatedAt: now,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	s.logger.Info("file created", "file_id", file.ID, "team_id", file.TeamID, "path", file.Path, "commit", commit.Hash)
	return file, nil
}

// DeleteFile removes a file and its entire history. Deleting an unknown
// file is not an error.
func (s *Service) DeleteFile(fileID int64) error {
	if err := s.database.DeleteFile(fileID); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	s.logger.Info("file deleted", "file_id", fileID)
	return nil
}

// ListFiles returns a team's files, most recently updated first.
func (s *Service) ListFiles(teamID int64) ([]*sqlc.File, error) {
	files, err := s.database.ListFilesByTeam(teamID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// RegisterAuthor records the display name shown next to an author's commits.
func (s *Service) RegisterAuthor(id int64, displayName string) (*sqlc.Author, error) {
	displayName = strings.TrimSpace(displayName)
	if id == 0 || displayName == "" {
		return nil, fmt.Errorf("%w: author id and display name are required", ErrInvalidInput)
	}

	author, err := s.database.UpsertAuthor(&sqlc.Author{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("registering author: %w", err)
	}
	return author, nil
}
