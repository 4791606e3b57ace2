package vcs

import (
	"fmt"
	"strings"

	"codevault/internal/database/sqlc"
)

// SaveDraft appends the given content to the drafts branch of a file.
// Every call produces a commit, even when the content is unchanged.
func (s *Service) SaveDraft(fileID int64, content string, authorID int64) (*sqlc.Commit, error) {
	if fileID == 0 || authorID == 0 {
		return nil, fmt.Errorf("%w: file id and author id are required", ErrInvalidInput)
	}

	now := s.clock.Now()
	commit, err := s.database.AppendCommit(&sqlc.Commit{
		FileID:    fileID,
		Branch:    string(Drafts),
		AuthorID:  &authorID,
		Message:   autosaveMessage,
		Content:   content,
		Hash:      s.hashes.DraftHash(now),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}

	s.logger.Debug("draft saved", "file_id", fileID, "commit_id", commit.ID, "bytes", len(content))
	return commit, nil
}

// Publish copies the current drafts head onto main. A file with no drafts
// publishes empty content.
func (s *Service) Publish(fileID int64, message string, authorID int64) (*sqlc.Commit, error) {
	if fileID == 0 || authorID == 0 {
		return nil, fmt.Errorf("%w: file id and author id are required", ErrInvalidInput)
	}
	if strings.TrimSpace(message) == "" {
		message = publishMessage
	}

	now := s.clock.Now()
	commit, err := s.database.AppendCommitFromHead(Drafts, &sqlc.Commit{
		FileID:    fileID,
		Branch:    string(Main),
		AuthorID:  &authorID,
		Message:   message,
		Hash:      s.hashes.CommitHash(now),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("publishing: %w", err)
	}

	s.logger.Info("published", "file_id", fileID, "commit_id", commit.ID, "hash", commit.Hash)
	s.notifier.Notify(eventFor(EventCommit, commit, ""))
	return commit, nil
}

// Revert appends a new commit on target whose content is a copy of the
// commit with id commitID. History is never rewritten. authorID may be nil.
func (s *Service) Revert(commitID int64, target Branch, authorID *int64) (*sqlc.Commit, error) {
	if commitID == 0 {
		return nil, fmt.Errorf("%w: commit id is required", ErrInvalidInput)
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown branch %q", ErrInvalidInput, target)
	}

	source, err := s.findCommit(commitID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	commit, err := s.database.AppendCommitFromCommit(source.ID, &sqlc.Commit{
		Branch:    string(target),
		AuthorID:  authorID,
		Message:   "Revert to " + source.Hash,
		Hash:      s.hashes.CommitHash(now),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("reverting: %w", err)
	}

	s.logger.Info("reverted", "file_id", commit.FileID, "commit_id", commit.ID, "branch", target, "reverted_from", source.Hash)
	s.notifier.Notify(eventFor(EventRevert, commit, source.Hash))
	return commit, nil
}

func eventFor(typ EventType, commit *sqlc.Commit, revertedFrom string) Event {
	return Event{
		Type:         typ,
		FileID:       commit.FileID,
		TeamID:       commit.TeamID,
		CommitID:     commit.ID,
		Branch:       Branch(commit.Branch),
		Message:      commit.Message,
		Hash:         commit.Hash,
		AuthorID:     commit.AuthorID,
		RevertedFrom: revertedFrom,
		Timestamp:    commit.CreatedAt,
	}
}
