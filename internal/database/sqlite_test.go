package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"codevault/internal/database/sqlc"
	"codevault/internal/vcs"
)

var testTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if _, err := db.db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func int64Ptr(v int64) *int64 { return &v }

func createTestFile(t *testing.T, db *SQLiteDatabase, teamID int64, path, content string) (*sqlc.File, *sqlc.Commit) {
	t.Helper()
	file, commit, err := db.CreateFileWithCommit(
		&sqlc.File{TeamID: teamID, Name: path, Path: path, Language: "go", CreatedBy: 1, CreatedAt: testTime, UpdatedAt: testTime},
		&sqlc.Commit{Branch: "drafts", AuthorID: int64Ptr(1), Message: "Initial upload", Content: content, Hash: "h0", CreatedAt: testTime},
	)
	if err != nil {
		t.Fatalf("CreateFileWithCommit() error = %v", err)
	}
	return file, commit
}

func TestSQLiteDatabase_FindFileByID(t *testing.T) {
	t.Run("returns nil when file not found", func(t *testing.T) {
		db := newTestDB(t)

		file, err := db.FindFileByID(42)
		if err != nil {
			t.Fatalf("FindFileByID() error = %v", err)
		}
		if file != nil {
			t.Errorf("FindFileByID() = %v, want nil", file)
		}
	})

	t.Run("finds existing file", func(t *testing.T) {
		db := newTestDB(t)
		created, _ := createTestFile(t, db, 1, "main.go", "package main")

		found, err := db.FindFileByID(created.ID)
		if err != nil {
			t.Fatalf("FindFileByID() error = %v", err)
		}
		if found == nil {
			t.Fatal("FindFileByID() returned nil, want file")
		}
		if found.Path != "main.go" || found.TeamID != 1 {
			t.Errorf("FindFileByID() = %+v", found)
		}
		if !found.CreatedAt.Equal(testTime) {
			t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, testTime)
		}
	})
}

func TestSQLiteDatabase_CreateFileWithCommit(t *testing.T) {
	t.Run("stamps team and checksum on the commit", func(t *testing.T) {
		db := newTestDB(t)
		file, commit := createTestFile(t, db, 5, "a.go", "body")

		if commit.FileID != file.ID {
			t.Errorf("FileID = %d, want %d", commit.FileID, file.ID)
		}
		if commit.TeamID != 5 {
			t.Errorf("TeamID = %d, want 5", commit.TeamID)
		}
		if commit.Checksum != vcs.Checksum("body") {
			t.Errorf("Checksum = %q", commit.Checksum)
		}
		if commit.ID == 0 {
			t.Error("commit ID not assigned")
		}
	})

	t.Run("upsert keeps id and created_at", func(t *testing.T) {
		db := newTestDB(t)
		first, _ := createTestFile(t, db, 1, "a.go", "v1")

		later := testTime.Add(time.Hour)
		second, _, err := db.CreateFileWithCommit(
			&sqlc.File{TeamID: 1, Name: "renamed.go", Path: "a.go", Language: "go", CreatedBy: 2, CreatedAt: later, UpdatedAt: later},
			&sqlc.Commit{Branch: "drafts", Message: "Initial upload", Content: "v2", Hash: "h1", CreatedAt: later},
		)
		if err != nil {
			t.Fatalf("CreateFileWithCommit() error = %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("ID = %d, want %d", second.ID, first.ID)
		}
		if !second.CreatedAt.Equal(testTime) {
			t.Errorf("CreatedAt = %v, want original %v", second.CreatedAt, testTime)
		}
		if !second.UpdatedAt.Equal(later) {
			t.Errorf("UpdatedAt = %v, want %v", second.UpdatedAt, later)
		}
		if second.Name != "renamed.go" || second.CreatedBy != 2 {
			t.Errorf("registry row not updated: %+v", second)
		}

		commits, err := db.ListCommitsByBranch(first.ID, vcs.Drafts)
		if err != nil {
			t.Fatalf("ListCommitsByBranch() error = %v", err)
		}
		if len(commits) != 2 {
			t.Errorf("len(commits) = %d, want 2", len(commits))
		}
	})
}

func TestSQLiteDatabase_AppendCommit(t *testing.T) {
	t.Run("bumps updated_at", func(t *testing.T) {
		db := newTestDB(t)
		file, _ := createTestFile(t, db, 1, "a.go", "v1")

		later := testTime.Add(time.Minute)
		commit, err := db.AppendCommit(&sqlc.Commit{
			FileID: file.ID, Branch: "drafts", AuthorID: int64Ptr(1), Message: "Auto-save", Content: "v2", Hash: "h1", CreatedAt: later,
		})
		if err != nil {
			t.Fatalf("AppendCommit() error = %v", err)
		}
		if commit.TeamID != 1 {
			t.Errorf("TeamID = %d, want 1", commit.TeamID)
		}

		found, err := db.FindFileByID(file.ID)
		if err != nil {
			t.Fatalf("FindFileByID() error = %v", err)
		}
		if !found.UpdatedAt.Equal(later) {
			t.Errorf("UpdatedAt = %v, want %v", found.UpdatedAt, later)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		db := newTestDB(t)
		_, err := db.AppendCommit(&sqlc.Commit{FileID: 99, Branch: "drafts", Hash: "h", CreatedAt: testTime})
		if !errors.Is(err, vcs.ErrNotFound) {
			t.Errorf("AppendCommit() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_AppendCommitFromHead(t *testing.T) {
	t.Run("copies the source head", func(t *testing.T) {
		db := newTestDB(t)
		file, _ := createTestFile(t, db, 1, "a.go", "v1")
		if _, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", Content: "v2", Hash: "h1", CreatedAt: testTime}); err != nil {
			t.Fatalf("AppendCommit() error = %v", err)
		}

		published, err := db.AppendCommitFromHead(vcs.Drafts, &sqlc.Commit{
			FileID: file.ID, Branch: "main", Message: "Update file", Content: "ignored", Hash: "c1", CreatedAt: testTime,
		})
		if err != nil {
			t.Fatalf("AppendCommitFromHead() error = %v", err)
		}
		if published.Content != "v2" {
			t.Errorf("Content = %q, want v2 (tie on created_at goes to the later id)", published.Content)
		}
		if published.Checksum != vcs.Checksum("v2") {
			t.Errorf("Checksum = %q", published.Checksum)
		}
	})

	t.Run("empty source branch", func(t *testing.T) {
		db := newTestDB(t)
		file, _ := createTestFile(t, db, 1, "a.go", "v1")

		commit, err := db.AppendCommitFromHead(vcs.Main, &sqlc.Commit{FileID: file.ID, Branch: "drafts", Hash: "c1", CreatedAt: testTime})
		if err != nil {
			t.Fatalf("AppendCommitFromHead() error = %v", err)
		}
		if commit.Content != "" {
			t.Errorf("Content = %q, want empty", commit.Content)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		db := newTestDB(t)
		_, err := db.AppendCommitFromHead(vcs.Drafts, &sqlc.Commit{FileID: 99, Branch: "main", Hash: "c", CreatedAt: testTime})
		if !errors.Is(err, vcs.ErrNotFound) {
			t.Errorf("AppendCommitFromHead() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_AppendCommitFromCommit(t *testing.T) {
	t.Run("copies content and file", func(t *testing.T) {
		db := newTestDB(t)
		file, source := createTestFile(t, db, 3, "a.go", "original")
		if _, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", Content: "changed", Hash: "h1", CreatedAt: testTime}); err != nil {
			t.Fatalf("AppendCommit() error = %v", err)
		}

		reverted, err := db.AppendCommitFromCommit(source.ID, &sqlc.Commit{Branch: "main", Message: "Revert to h0", Hash: "r1", CreatedAt: testTime})
		if err != nil {
			t.Fatalf("AppendCommitFromCommit() error = %v", err)
		}
		if reverted.FileID != file.ID || reverted.TeamID != 3 {
			t.Errorf("reverted = %+v", reverted)
		}
		if reverted.Content != "original" {
			t.Errorf("Content = %q, want original", reverted.Content)
		}
		if reverted.AuthorID != nil {
			t.Errorf("AuthorID = %v, want nil", reverted.AuthorID)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		db := newTestDB(t)
		_, err := db.AppendCommitFromCommit(99, &sqlc.Commit{Branch: "main", Hash: "r", CreatedAt: testTime})
		if !errors.Is(err, vcs.ErrNotFound) {
			t.Errorf("AppendCommitFromCommit() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_DeleteFile(t *testing.T) {
	db := newTestDB(t)
	file, commit := createTestFile(t, db, 1, "a.go", "v1")

	if err := db.DeleteFile(file.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}

	found, err := db.FindFileByID(file.ID)
	if err != nil {
		t.Fatalf("FindFileByID() error = %v", err)
	}
	if found != nil {
		t.Error("file still present after DeleteFile()")
	}

	c, err := db.FindCommitByID(commit.ID)
	if err != nil {
		t.Fatalf("FindCommitByID() error = %v", err)
	}
	if c != nil {
		t.Error("commit still present after DeleteFile()")
	}

	if err := db.DeleteFile(file.ID); err != nil {
		t.Errorf("second DeleteFile() error = %v, want nil", err)
	}
}

func TestSQLiteDatabase_FindHeadCommit(t *testing.T) {
	db := newTestDB(t)
	file, _ := createTestFile(t, db, 1, "a.go", "v1")

	head, err := db.FindHeadCommit(file.ID, vcs.Main)
	if err != nil {
		t.Fatalf("FindHeadCommit() error = %v", err)
	}
	if head != nil {
		t.Errorf("FindHeadCommit(main) = %+v, want nil", head)
	}

	// an earlier timestamp inserted later does not become head
	if _, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", Content: "older", Hash: "h1", CreatedAt: testTime.Add(-time.Hour)}); err != nil {
		t.Fatalf("AppendCommit() error = %v", err)
	}
	head, err = db.FindHeadCommit(file.ID, vcs.Drafts)
	if err != nil {
		t.Fatalf("FindHeadCommit() error = %v", err)
	}
	if head.Content != "v1" {
		t.Errorf("head = %q, want v1", head.Content)
	}
}

func TestSQLiteDatabase_Authors(t *testing.T) {
	db := newTestDB(t)

	missing, err := db.FindAuthorByID(7)
	if err != nil {
		t.Fatalf("FindAuthorByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindAuthorByID() = %+v, want nil", missing)
	}

	if _, err := db.UpsertAuthor(&sqlc.Author{ID: 7, DisplayName: "Ada", CreatedAt: testTime}); err != nil {
		t.Fatalf("UpsertAuthor() error = %v", err)
	}
	updated, err := db.UpsertAuthor(&sqlc.Author{ID: 7, DisplayName: "Grace", CreatedAt: testTime.Add(time.Hour)})
	if err != nil {
		t.Fatalf("UpsertAuthor() error = %v", err)
	}
	if updated.DisplayName != "Grace" {
		t.Errorf("DisplayName = %q, want Grace", updated.DisplayName)
	}
	if !updated.CreatedAt.Equal(testTime) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, testTime)
	}

	file, commit := createTestFile(t, db, 1, "a.go", "x")
	detail, err := db.FindCommitDetail(commit.ID)
	if err != nil {
		t.Fatalf("FindCommitDetail() error = %v", err)
	}
	// the commit author is 1, who is not registered
	if detail.AuthorName != "" || detail.FileName != "a.go" {
		t.Errorf("FindCommitDetail() = %+v", detail)
	}

	if _, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", AuthorID: int64Ptr(7), Content: "y", Hash: "h1", CreatedAt: testTime.Add(time.Second)}); err != nil {
		t.Fatalf("AppendCommit() error = %v", err)
	}
	details, err := db.ListCommitDetails(file.ID)
	if err != nil {
		t.Fatalf("ListCommitDetails() error = %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("len(details) = %d, want 2", len(details))
	}
	if details[0].AuthorName != "Grace" {
		t.Errorf("details[0].AuthorName = %q, want Grace", details[0].AuthorName)
	}
}

func TestSQLiteDatabase_MaxCommitID(t *testing.T) {
	db := newTestDB(t)

	id, err := db.MaxCommitID()
	if err != nil {
		t.Fatalf("MaxCommitID() error = %v", err)
	}
	if id != 0 {
		t.Errorf("MaxCommitID() = %d, want 0", id)
	}

	_, commit := createTestFile(t, db, 1, "a.go", "x")
	id, err = db.MaxCommitID()
	if err != nil {
		t.Fatalf("MaxCommitID() error = %v", err)
	}
	if id != commit.ID {
		t.Errorf("MaxCommitID() = %d, want %d", id, commit.ID)
	}
}

func newFileDB(t *testing.T) *SQLiteDatabase {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codevault.db")
	db, err := NewSQLiteDatabase(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	return db
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newFileDB(t)
	createTestFile(t, db, 1, "a.go", "backed up")

	dest := filepath.Join(t.TempDir(), "copy.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	copyDB, err := NewSQLiteDatabase(dest, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer copyDB.Close()

	if err := copyDB.CheckMigrations(); err != nil {
		t.Errorf("backup CheckMigrations() error = %v", err)
	}
	files, err := copyDB.ListFilesByTeam(1)
	if err != nil {
		t.Fatalf("ListFilesByTeam() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("len(files) = %d, want 1", len(files))
	}
}

func TestSQLiteDatabase_ReadOnlyRecovery(t *testing.T) {
	t.Run("file database reconnects and retries", func(t *testing.T) {
		db := newFileDB(t)
		file, _ := createTestFile(t, db, 1, "a.go", "v1")

		if _, err := db.db.Exec("PRAGMA query_only = ON"); err != nil {
			t.Fatalf("enabling query_only: %v", err)
		}

		commit, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", Content: "v2", Hash: "h1", CreatedAt: testTime})
		if err != nil {
			t.Fatalf("AppendCommit() error = %v, want recovery", err)
		}
		if commit.Content != "v2" {
			t.Errorf("Content = %q, want v2", commit.Content)
		}
	})

	t.Run("readers holding the old connection keep working", func(t *testing.T) {
		db := newFileDB(t)
		file, _ := createTestFile(t, db, 1, "a.go", "v1")

		staleDB, staleQueries := db.conn()
		if _, err := staleDB.Exec("PRAGMA query_only = ON"); err != nil {
			t.Fatalf("enabling query_only: %v", err)
		}
		if _, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", Content: "v2", Hash: "h1", CreatedAt: testTime}); err != nil {
			t.Fatalf("AppendCommit() error = %v, want recovery", err)
		}
		if current, _ := db.conn(); current == staleDB {
			t.Fatal("AppendCommit() recovered without replacing the connection")
		}

		got, err := staleQueries.GetFileByID(context.Background(), file.ID)
		if err != nil {
			t.Fatalf("read through replaced connection error = %v", err)
		}
		if got.ID != file.ID {
			t.Errorf("GetFileByID() = %d, want %d", got.ID, file.ID)
		}

		if err := db.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := staleDB.Ping(); err == nil {
			t.Error("replaced connection still open after Close()")
		}
	})

	t.Run("memory database surfaces the error", func(t *testing.T) {
		db := newTestDB(t)
		file, _ := createTestFile(t, db, 1, "a.go", "v1")

		if _, err := db.db.Exec("PRAGMA query_only = ON"); err != nil {
			t.Fatalf("enabling query_only: %v", err)
		}

		_, err := db.AppendCommit(&sqlc.Commit{FileID: file.ID, Branch: "drafts", Content: "v2", Hash: "h1", CreatedAt: testTime})
		if !isReadOnly(err) {
			t.Errorf("AppendCommit() error = %v, want read-only error", err)
		}
	})
}
