package vcs

import "codevault/internal/database/sqlc"

// CommitDetail is a commit joined with its author's display name and, where
// requested, its file's name.
type CommitDetail struct {
	sqlc.Commit
	AuthorName string `json:"author_name"`
	FileName   string `json:"file_name,omitempty"`
}

// Database provides an interface for file registry and commit storage.
// Find methods return nil, nil when the row does not exist. Append methods
// run inside a single transaction and return an error wrapping ErrNotFound
// when the file (or source commit) disappears before the insert.
type Database interface {
	// Author directory

	// UpsertAuthor creates or renames the author with the given id.
	UpsertAuthor(author *sqlc.Author) (*sqlc.Author, error)

	// FindAuthorByID returns an author by id.
	FindAuthorByID(id int64) (*sqlc.Author, error)

	// File registry

	// CreateFileWithCommit upserts the file keyed by (team_id, path) and
	// appends commit as its first entry for this upload. The file row keeps
	// its id when the path already exists, so earlier history stays attached.
	CreateFileWithCommit(file *sqlc.File, commit *sqlc.Commit) (*sqlc.File, *sqlc.Commit, error)

	// FindFileByID returns a file by id.
	FindFileByID(id int64) (*sqlc.File, error)

	// ListFilesByTeam returns a team's files, most recently updated first.
	ListFilesByTeam(teamID int64) ([]*sqlc.File, error)

	// DeleteFile removes every commit of the file, then the file itself.
	DeleteFile(id int64) error

	// Content store

	// AppendCommit inserts commit and bumps the owning file's updated_at.
	// TeamID is taken from the file row.
	AppendCommit(commit *sqlc.Commit) (*sqlc.Commit, error)

	// AppendCommitFromHead copies the content of the head of source (empty
	// when the branch has no commits) into commit, then appends it.
	AppendCommitFromHead(source Branch, commit *sqlc.Commit) (*sqlc.Commit, error)

	// AppendCommitFromCommit copies file, team and content from the commit
	// with id sourceID into commit, then appends it.
	AppendCommitFromCommit(sourceID int64, commit *sqlc.Commit) (*sqlc.Commit, error)

	// FindCommitByID returns a commit by id.
	FindCommitByID(id int64) (*sqlc.Commit, error)

	// FindCommitDetail returns a commit with its author and file names.
	FindCommitDetail(id int64) (*CommitDetail, error)

	// Branch resolution

	// FindHeadCommit returns the latest commit on a branch of a file.
	// Ties on created_at go to the higher id.
	FindHeadCommit(fileID int64, branch Branch) (*sqlc.Commit, error)

	// ListCommitsByBranch returns a branch's commits, newest first.
	ListCommitsByBranch(fileID int64, branch Branch) ([]*sqlc.Commit, error)

	// ListCommitDetails returns every commit of a file across both branches,
	// newest first, annotated with author names.
	ListCommitDetails(fileID int64) ([]*CommitDetail, error)

	// Close closes the database connection.
	Close() error
}
