package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"

	"codevault/internal/database/migrations"
	"codevault/internal/database/sqlc"
	"codevault/internal/vcs"
)

const memoryPath = ":memory:"

// SQLiteDatabase implements the vcs.Database interface using SQLite.
type SQLiteDatabase struct {
	mu      sync.RWMutex
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	logger  vcs.Logger

	// retired pools replaced by reopen; readers may still hold them
	retired []*sql.DB
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string, logger vcs.Logger) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = vcs.NewNopLogger()
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
		logger:  logger,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
// Wrapped connections are never reopened.
func NewSQLiteDatabaseFromDB(db *sql.DB, logger vcs.Logger) *SQLiteDatabase {
	if logger == nil {
		logger = vcs.NewNopLogger()
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger,
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection and an in-memory database lives and dies
	// with its connection, so the pool holds exactly one.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

func (s *SQLiteDatabase) conn() (*sql.DB, *sqlc.Queries) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db, s.queries
}

func isReadOnly(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrReadonly
}

// reopen replaces a connection that SQLite has flagged read-only, typically
// after the database file was swapped underneath the process. The stale pool
// stays open for readers that fetched it before the swap and is closed by
// Close.
func (s *SQLiteDatabase) reopen(stale *sql.DB) error {
	if s.path == "" || s.path == memoryPath {
		return errors.New("in-memory database cannot be reopened")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != stale {
		// another writer already reconnected
		return nil
	}

	db, err := OpenConnection(s.path)
	if err != nil {
		return err
	}
	s.db = db
	s.queries = sqlc.New(db)
	// drop its connection once the last reader releases it
	stale.SetMaxIdleConns(0)
	s.retired = append(s.retired, stale)

	s.logger.Warn("reopened read-only database connection", "path", s.path)
	return nil
}

// write runs fn in a transaction. When SQLite reports the connection as
// read-only, the connection is reopened and fn is retried once.
func (s *SQLiteDatabase) write(fn func(ctx context.Context, q *sqlc.Queries) error) error {
	db, _ := s.conn()
	err := s.runTx(db, fn)
	if err == nil || !isReadOnly(err) {
		return err
	}

	if rerr := s.reopen(db); rerr != nil {
		s.logger.Error("failed to reopen read-only database", "path", s.path, "error", rerr)
		return err
	}

	db, _ = s.conn()
	return s.runTx(db, fn)
}

func (s *SQLiteDatabase) runTx(db *sql.DB, fn func(ctx context.Context, q *sqlc.Queries) error) error {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, sqlc.New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Author directory

func (s *SQLiteDatabase) UpsertAuthor(author *sqlc.Author) (*sqlc.Author, error) {
	var saved sqlc.Author
	err := s.write(func(ctx context.Context, q *sqlc.Queries) error {
		err := q.UpsertAuthor(ctx, sqlc.UpsertAuthorParams{
			ID:          author.ID,
			DisplayName: author.DisplayName,
			CreatedAt:   author.CreatedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("upserting author: %w", err)
		}
		saved, err = q.GetAuthorByID(ctx, author.ID)
		if err != nil {
			return fmt.Errorf("reading author: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *SQLiteDatabase) FindAuthorByID(id int64) (*sqlc.Author, error) {
	_, queries := s.conn()
	author, err := queries.GetAuthorByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding author: %w", err)
	}
	return &author, nil
}

// File registry

func (s *SQLiteDatabase) CreateFileWithCommit(file *sqlc.File, commit *sqlc.Commit) (*sqlc.File, *sqlc.Commit, error) {
	var (
		savedFile   sqlc.File
		savedCommit *sqlc.Commit
	)
	err := s.write(func(ctx context.Context, q *sqlc.Queries) error {
		err := q.UpsertFile(ctx, sqlc.UpsertFileParams{
			TeamID:    file.TeamID,
			Name:      file.Name,
			Path:      file.Path,
			Language:  file.Language,
			CreatedBy: file.CreatedBy,
			CreatedAt: file.CreatedAt.UTC(),
			UpdatedAt: file.UpdatedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("upserting file: %w", err)
		}

		savedFile, err = q.GetFileByTeamAndPath(ctx, sqlc.GetFileByTeamAndPathParams{
			TeamID: file.TeamID,
			Path:   file.Path,
		})
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		c := *commit
		c.FileID = savedFile.ID
		c.TeamID = savedFile.TeamID
		savedCommit, err = insertCommit(ctx, q, &c)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &savedFile, savedCommit, nil
}

func (s *SQLiteDatabase) FindFileByID(id int64) (*sqlc.File, error) {
	_, queries := s.conn()
	file, err := queries.GetFileByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return &file, nil
}

func (s *SQLiteDatabase) ListFilesByTeam(teamID int64) ([]*sqlc.File, error) {
	_, queries := s.conn()
	files, err := queries.ListFilesByTeam(context.Background(), teamID)
	if err != nil {
		return nil, fmt.Errorf("listing files by team: %w", err)
	}

	result := make([]*sqlc.File, len(files))
	for i := range files {
		result[i] = &files[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) DeleteFile(id int64) error {
	return s.write(func(ctx context.Context, q *sqlc.Queries) error {
		if err := q.DeleteCommitsByFileID(ctx, id); err != nil {
			return fmt.Errorf("deleting commits: %w", err)
		}
		if err := q.DeleteFileByID(ctx, id); err != nil {
			return fmt.Errorf("deleting file: %w", err)
		}
		return nil
	})
}

// Content store

// lockFile loads the file a commit is about to be appended to. Running
// inside the write transaction closes the window against a concurrent delete.
func lockFile(ctx context.Context, q *sqlc.Queries, fileID int64) (*sqlc.File, error) {
	file, err := q.GetFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: file %d", vcs.ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("finding file: %w", err)
	}
	return &file, nil
}

// insertCommit appends c, stamps its checksum and bumps the file's
// updated_at to the commit time.
func insertCommit(ctx context.Context, q *sqlc.Queries, c *sqlc.Commit) (*sqlc.Commit, error) {
	createdAt := c.CreatedAt.UTC()
	id, err := q.InsertCommit(ctx, sqlc.InsertCommitParams{
		TeamID:    c.TeamID,
		FileID:    c.FileID,
		Branch:    c.Branch,
		AuthorID:  c.AuthorID,
		Message:   c.Message,
		Content:   c.Content,
		Hash:      c.Hash,
		Checksum:  vcs.Checksum(c.Content),
		CreatedAt: createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting commit: %w", err)
	}

	if err := q.TouchFile(ctx, sqlc.TouchFileParams{UpdatedAt: createdAt, ID: c.FileID}); err != nil {
		return nil, fmt.Errorf("touching file: %w", err)
	}

	saved, err := q.GetCommitByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading commit: %w", err)
	}
	return &saved, nil
}

func (s *SQLiteDatabase) AppendCommit(commit *sqlc.Commit) (*sqlc.Commit, error) {
	var saved *sqlc.Commit
	err := s.write(func(ctx context.Context, q *sqlc.Queries) error {
		file, err := lockFile(ctx, q, commit.FileID)
		if err != nil {
			return err
		}

		c := *commit
		c.TeamID = file.TeamID
		saved, err = insertCommit(ctx, q, &c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *SQLiteDatabase) AppendCommitFromHead(source vcs.Branch, commit *sqlc.Commit) (*sqlc.Commit, error) {
	var saved *sqlc.Commit
	err := s.write(func(ctx context.Context, q *sqlc.Queries) error {
		file, err := lockFile(ctx, q, commit.FileID)
		if err != nil {
			return err
		}

		c := *commit
		c.TeamID = file.TeamID
		c.Content = ""

		head, err := q.GetHeadCommit(ctx, sqlc.GetHeadCommitParams{FileID: file.ID, Branch: string(source)})
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// nothing saved yet; the copy is empty
		case err != nil:
			return fmt.Errorf("resolving %s head: %w", source, err)
		default:
			c.Content = head.Content
		}

		saved, err = insertCommit(ctx, q, &c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *SQLiteDatabase) AppendCommitFromCommit(sourceID int64, commit *sqlc.Commit) (*sqlc.Commit, error) {
	var saved *sqlc.Commit
	err := s.write(func(ctx context.Context, q *sqlc.Queries) error {
		src, err := q.GetCommitByID(ctx, sourceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: commit %d", vcs.ErrNotFound, sourceID)
			}
			return fmt.Errorf("finding source commit: %w", err)
		}

		file, err := lockFile(ctx, q, src.FileID)
		if err != nil {
			return err
		}

		c := *commit
		c.FileID = file.ID
		c.TeamID = file.TeamID
		c.Content = src.Content
		saved, err = insertCommit(ctx, q, &c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *SQLiteDatabase) FindCommitByID(id int64) (*sqlc.Commit, error) {
	_, queries := s.conn()
	commit, err := queries.GetCommitByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding commit: %w", err)
	}
	return &commit, nil
}

func (s *SQLiteDatabase) FindCommitDetail(id int64) (*vcs.CommitDetail, error) {
	_, queries := s.conn()
	row, err := queries.GetCommitDetail(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding commit detail: %w", err)
	}
	return &vcs.CommitDetail{
		Commit: sqlc.Commit{
			ID:        row.ID,
			TeamID:    row.TeamID,
			FileID:    row.FileID,
			Branch:    row.Branch,
			AuthorID:  row.AuthorID,
			Message:   row.Message,
			Content:   row.Content,
			Hash:      row.Hash,
			Checksum:  row.Checksum,
			CreatedAt: row.CreatedAt,
		},
		AuthorName: row.AuthorName,
		FileName:   row.FileName,
	}, nil
}

// Branch resolution

func (s *SQLiteDatabase) FindHeadCommit(fileID int64, branch vcs.Branch) (*sqlc.Commit, error) {
	_, queries := s.conn()
	head, err := queries.GetHeadCommit(context.Background(), sqlc.GetHeadCommitParams{
		FileID: fileID,
		Branch: string(branch),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding head commit: %w", err)
	}
	return &head, nil
}

func (s *SQLiteDatabase) ListCommitsByBranch(fileID int64, branch vcs.Branch) ([]*sqlc.Commit, error) {
	_, queries := s.conn()
	commits, err := queries.ListCommitsByFileAndBranch(context.Background(), sqlc.ListCommitsByFileAndBranchParams{
		FileID: fileID,
		Branch: string(branch),
	})
	if err != nil {
		return nil, fmt.Errorf("listing commits by branch: %w", err)
	}

	result := make([]*sqlc.Commit, len(commits))
	for i := range commits {
		result[i] = &commits[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) ListCommitDetails(fileID int64) ([]*vcs.CommitDetail, error) {
	_, queries := s.conn()
	rows, err := queries.ListCommitDetailsByFile(context.Background(), fileID)
	if err != nil {
		return nil, fmt.Errorf("listing commit details: %w", err)
	}

	result := make([]*vcs.CommitDetail, len(rows))
	for i, row := range rows {
		result[i] = &vcs.CommitDetail{
			Commit: sqlc.Commit{
				ID:        row.ID,
				TeamID:    row.TeamID,
				FileID:    row.FileID,
				Branch:    row.Branch,
				AuthorID:  row.AuthorID,
				Message:   row.Message,
				Content:   row.Content,
				Hash:      row.Hash,
				Checksum:  row.Checksum,
				CreatedAt: row.CreatedAt,
			},
			AuthorName: row.AuthorName,
		}
	}
	return result, nil
}

// MaxCommitID returns the highest commit id, or 0 for an empty store.
// Snapshots use it as their version number.
func (s *SQLiteDatabase) MaxCommitID() (int64, error) {
	_, queries := s.conn()
	id, err := queries.GetMaxCommitID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max commit ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	db, _ := s.conn()
	return migrations.CheckDBMigrationStatus(db)
}

// MigrationStatus reports the applied and latest schema versions.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	db, _ := s.conn()
	return migrations.DBStatus(db)
}

// MigrateUp applies any pending migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	db, _ := s.conn()
	return migrations.MigrateUp(db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	db, _ := s.conn()
	if _, err := db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, db := range s.retired {
		errs = append(errs, db.Close())
	}
	s.retired = nil
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// Compile-time check that SQLiteDatabase implements vcs.Database interface
var _ vcs.Database = (*SQLiteDatabase)(nil)
