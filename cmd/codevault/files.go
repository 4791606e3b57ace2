package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"codevault/internal/app"
	"codevault/internal/database/sqlc"
	"codevault/internal/vcs"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	hashColor   = color.New(color.FgYellow).SprintFunc()
	branchColor = color.New(color.FgCyan).SprintFunc()
	dimColor    = color.New(color.Faint).SprintFunc()
	addColor    = color.New(color.FgGreen).SprintFunc()
	deleteColor = color.New(color.FgRed).SprintFunc()
	hunkColor   = color.New(color.FgMagenta).SprintFunc()

	// authorFlagID is the global --author flag.
	authorFlagID int64
)

func printCommit(c *sqlc.Commit, author string) {
	who := author
	if who == "" && c.AuthorID != nil {
		who = fmt.Sprintf("#%d", *c.AuthorID)
	}
	if who == "" {
		who = "-"
	}
	fmt.Printf("%d  %s  %-7s  %s  %-12s  %s\n",
		c.ID,
		hashColor(c.Hash),
		branchColor(c.Branch),
		dimColor(c.CreatedAt.Local().Format(timeLayout)),
		who,
		c.Message,
	)
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files",
}

var fileCreateCmd = &cobra.Command{
	Use:   "create LOCALFILE",
	Short: "Register a file and upload its content as the first draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		teamID, _ := cmd.Flags().GetInt64("team")
		path, _ := cmd.Flags().GetString("path")
		language, _ := cmd.Flags().GetString("language")

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		name := filepath.Base(args[0])
		if path == "" {
			path = name
		}

		return withApp("file-create", func(a *app.App) error {
			file, err := a.Service().CreateFile(vcs.CreateFileRequest{
				TeamID:         teamID,
				FileName:       name,
				Path:           path,
				Language:       language,
				AuthorID:       authorFlagID,
				InitialContent: string(content),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created file %d (%s) in team %d\n", file.ID, file.Path, file.TeamID)
			return nil
		})
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a team's files, most recently changed first",
	RunE: func(cmd *cobra.Command, args []string) error {
		teamID, _ := cmd.Flags().GetInt64("team")

		return withApp("file-list", func(a *app.App) error {
			files, err := a.Service().ListFiles(teamID)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No files.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%d  %-30s  %-10s  %s\n",
					f.ID, f.Path, f.Language, dimColor(f.UpdatedAt.Local().Format(timeLayout)))
			}
			return nil
		})
	},
}

var fileShowCmd = &cobra.Command{
	Use:   "show FILE_ID",
	Short: "Show a file's heads and full history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}

		return withApp("file-show", func(a *app.App) error {
			bundle, err := a.Service().GetContentBundle(fileID)
			if err != nil {
				return err
			}
			f := bundle.File
			fmt.Printf("File %d: %s (%s), team %d\n", f.ID, f.Path, f.Language, f.TeamID)
			fmt.Printf("drafts: %d bytes, main: %d bytes\n\n", len(bundle.DraftsContent), len(bundle.MainContent))
			for _, c := range bundle.Commits {
				printCommit(&c.Commit, c.AuthorName)
			}
			return nil
		})
	},
}

var fileDeleteCmd = &cobra.Command{
	Use:   "delete FILE_ID",
	Short: "Delete a file and all of its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}

		return withApp("file-delete", func(a *app.App) error {
			if err := a.Service().DeleteFile(fileID); err != nil {
				return err
			}
			fmt.Printf("Deleted file %d\n", fileID)
			return nil
		})
	},
}

// draft command
var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Work with the drafts branch",
}

var draftSaveCmd = &cobra.Command{
	Use:   "save FILE_ID LOCALFILE",
	Short: "Save a local file as a new draft",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}
		content, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}

		return withApp("draft-save", func(a *app.App) error {
			c, err := a.Service().SaveDraft(fileID, string(content), authorFlagID)
			if err != nil {
				return err
			}
			printCommit(c, "")
			return nil
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish FILE_ID",
	Short: "Copy the latest draft onto main",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")

		return withApp("publish", func(a *app.App) error {
			c, err := a.Service().Publish(fileID, message, authorFlagID)
			if err != nil {
				return err
			}
			printCommit(c, "")
			return nil
		})
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert COMMIT_ID",
	Short: "Append a copy of an earlier commit onto a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commitID, err := parseID(args[0], "commit id")
		if err != nil {
			return err
		}
		rawBranch, _ := cmd.Flags().GetString("branch")
		branch, err := vcs.ParseBranch(rawBranch, vcs.Main)
		if err != nil {
			return err
		}

		var author *int64
		if authorFlagID != 0 {
			author = &authorFlagID
		}

		return withApp("revert", func(a *app.App) error {
			c, err := a.Service().Revert(commitID, branch, author)
			if err != nil {
				return err
			}
			printCommit(c, "")
			return nil
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log FILE_ID",
	Short: "View a branch's history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}
		rawBranch, _ := cmd.Flags().GetString("branch")
		branch, err := vcs.ParseBranch(rawBranch, vcs.Main)
		if err != nil {
			return err
		}

		return withApp("log", func(a *app.App) error {
			commits, err := a.Service().GetHistory(fileID, branch)
			if err != nil {
				return err
			}
			if len(commits) == 0 {
				fmt.Printf("No commits on %s.\n", branch)
				return nil
			}
			for _, c := range commits {
				printCommit(c, "")
			}
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show COMMIT_ID",
	Short: "Show a commit and its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commitID, err := parseID(args[0], "commit id")
		if err != nil {
			return err
		}

		return withApp("show", func(a *app.App) error {
			d, err := a.Service().GetCommit(commitID)
			if err != nil {
				return err
			}
			printCommit(&d.Commit, d.AuthorName)
			fmt.Printf("%s %s  %s %s\n\n", dimColor("file:"), d.FileName, dimColor("sha256:"), d.Checksum)
			fmt.Print(d.Content)
			if d.Content != "" && !strings.HasSuffix(d.Content, "\n") {
				fmt.Println()
			}
			return nil
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download FILE_ID",
	Short: "Write a branch head to a file (or stdout)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}
		rawBranch, _ := cmd.Flags().GetString("branch")
		branch, err := vcs.ParseBranch(rawBranch, vcs.Main)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")

		return withApp("download", func(a *app.App) error {
			dl, err := a.Service().Download(fileID, branch)
			if err != nil {
				return err
			}
			switch out {
			case "-":
				_, err = os.Stdout.WriteString(dl.Content)
				return err
			case "":
				out = dl.Filename
			}
			if err := os.WriteFile(out, []byte(dl.Content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes)\n", out, len(dl.Content))
			return nil
		})
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff FROM_COMMIT_ID TO_COMMIT_ID",
	Short: "Show a unified diff between two commits",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseID(args[0], "commit id")
		if err != nil {
			return err
		}
		to, err := parseID(args[1], "commit id")
		if err != nil {
			return err
		}

		return withApp("diff", func(a *app.App) error {
			res, err := a.Service().Diff(from, to)
			if err != nil {
				return err
			}
			if res.Identical() {
				fmt.Println("No differences.")
				return nil
			}
			for _, line := range strings.SplitAfter(res.Unified, "\n") {
				switch {
				case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
					fmt.Print(line)
				case strings.HasPrefix(line, "+"):
					fmt.Print(addColor(line))
				case strings.HasPrefix(line, "-"):
					fmt.Print(deleteColor(line))
				case strings.HasPrefix(line, "@@"):
					fmt.Print(hunkColor(line))
				default:
					fmt.Print(line)
				}
			}
			fmt.Printf("\n%s, %s\n", addColor(fmt.Sprintf("%d additions", res.Additions)),
				deleteColor(fmt.Sprintf("%d deletions", res.Deletions)))
			return nil
		})
	},
}

// author command
var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Manage the author directory",
}

var authorSetCmd = &cobra.Command{
	Use:   "set AUTHOR_ID DISPLAY_NAME",
	Short: "Create or rename an author",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "author id")
		if err != nil {
			return err
		}

		return withApp("author-set", func(a *app.App) error {
			author, err := a.Service().RegisterAuthor(id, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Author %d: %s\n", author.ID, author.DisplayName)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().Int64VarP(&authorFlagID, "author", "a", 0, "Author id recorded on new commits")

	fileCreateCmd.Flags().Int64P("team", "t", 0, "Team id")
	fileCreateCmd.Flags().String("path", "", "Path within the team (default: file name)")
	fileCreateCmd.Flags().StringP("language", "l", "", "Language tag (default: plaintext)")
	fileListCmd.Flags().Int64P("team", "t", 0, "Team id")
	fileCmd.AddCommand(fileCreateCmd, fileListCmd, fileShowCmd, fileDeleteCmd)
	rootCmd.AddCommand(fileCmd)

	draftCmd.AddCommand(draftSaveCmd)
	rootCmd.AddCommand(draftCmd)

	publishCmd.Flags().StringP("message", "m", "", "Commit message (default: \"Update file\")")
	rootCmd.AddCommand(publishCmd)

	revertCmd.Flags().StringP("branch", "b", "main", "Branch to append the revert to")
	rootCmd.AddCommand(revertCmd)

	logCmd.Flags().StringP("branch", "b", "main", "Branch to list")
	rootCmd.AddCommand(logCmd)

	rootCmd.AddCommand(showCmd)

	downloadCmd.Flags().StringP("branch", "b", "main", "Branch to download")
	downloadCmd.Flags().StringP("output", "o", "", "Output path, or - for stdout (default: the file's name)")
	rootCmd.AddCommand(downloadCmd)

	rootCmd.AddCommand(diffCmd)

	authorCmd.AddCommand(authorSetCmd)
	rootCmd.AddCommand(authorCmd)
}
