package vcs

import (
	"fmt"

	"codevault/internal/database/sqlc"
	"codevault/internal/diff"
)

// ContentBundle is everything an editor needs to open a file.
type ContentBundle struct {
	File          *sqlc.File      `json:"file"`
	DraftsContent string          `json:"drafts_content"`
	MainContent   string          `json:"main_content"`
	Commits       []*CommitDetail `json:"commits"`
}

// Download is a branch head ready to be served as a file attachment.
type Download struct {
	Filename string
	Content  string
}

func (s *Service) findFile(fileID int64) (*sqlc.File, error) {
	file, err := s.database.FindFileByID(fileID)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	return file, nil
}

func (s *Service) headContent(fileID int64, branch Branch) (string, error) {
	head, err := s.database.FindHeadCommit(fileID, branch)
	if err != nil {
		return "", fmt.Errorf("resolving %s head: %w", branch, err)
	}
	if head == nil {
		return "", nil
	}
	return head.Content, nil
}

// GetContentBundle returns a file, the content at both branch heads and the
// file's complete history, newest first.
func (s *Service) GetContentBundle(fileID int64) (*ContentBundle, error) {
	file, err := s.findFile(fileID)
	if err != nil {
		return nil, err
	}

	drafts, err := s.headContent(fileID, Drafts)
	if err != nil {
		return nil, err
	}
	main, err := s.headContent(fileID, Main)
	if err != nil {
		return nil, err
	}

	commits, err := s.database.ListCommitDetails(fileID)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	if commits == nil {
		commits = []*CommitDetail{}
	}

	return &ContentBundle{
		File:          file,
		DraftsContent: drafts,
		MainContent:   main,
		Commits:       commits,
	}, nil
}

// GetHistory returns the commits of one branch of a file, newest first.
// An unknown file simply has no history.
func (s *Service) GetHistory(fileID int64, branch Branch) ([]*sqlc.Commit, error) {
	if branch == "" {
		branch = Main
	}
	if !branch.Valid() {
		return nil, fmt.Errorf("%w: unknown branch %q", ErrInvalidInput, branch)
	}

	commits, err := s.database.ListCommitsByBranch(fileID, branch)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if commits == nil {
		commits = []*sqlc.Commit{}
	}
	return commits, nil
}

// GetCommit returns one commit with its author and file names.
func (s *Service) GetCommit(commitID int64) (*CommitDetail, error) {
	detail, err := s.database.FindCommitDetail(commitID)
	if err != nil {
		return nil, fmt.Errorf("finding commit: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: commit %d", ErrNotFound, commitID)
	}
	return detail, nil
}

// Download returns the head content of a branch named after the file.
func (s *Service) Download(fileID int64, branch Branch) (*Download, error) {
	if branch == "" {
		branch = Main
	}
	if !branch.Valid() {
		return nil, fmt.Errorf("%w: unknown branch %q", ErrInvalidInput, branch)
	}

	file, err := s.findFile(fileID)
	if err != nil {
		return nil, err
	}

	head, err := s.database.FindHeadCommit(fileID, branch)
	if err != nil {
		return nil, fmt.Errorf("resolving %s head: %w", branch, err)
	}
	if head == nil {
		return nil, fmt.Errorf("%w: no commits on %s", ErrNotFound, branch)
	}

	return &Download{Filename: file.Name, Content: head.Content}, nil
}

// Diff compares the content of two commits, from first to second.
func (s *Service) Diff(fromCommitID, toCommitID int64) (*diff.Result, error) {
	from, err := s.findCommit(fromCommitID)
	if err != nil {
		return nil, err
	}
	to, err := s.findCommit(toCommitID)
	if err != nil {
		return nil, err
	}

	res, err := diff.Compute(from.Content, to.Content, diff.Options{
		FromLabel: from.Branch + "@" + from.Hash,
		ToLabel:   to.Branch + "@" + to.Hash,
		Context:   diff.DefaultContext,
	})
	if err != nil {
		return nil, fmt.Errorf("diffing commits: %w", err)
	}
	return res, nil
}

func (s *Service) findCommit(commitID int64) (*sqlc.Commit, error) {
	commit, err := s.database.FindCommitByID(commitID)
	if err != nil {
		return nil, fmt.Errorf("finding commit: %w", err)
	}
	if commit == nil {
		return nil, fmt.Errorf("%w: commit %d", ErrNotFound, commitID)
	}
	return commit, nil
}
