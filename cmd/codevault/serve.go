package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codevault/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		return withApp("serve", func(a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch FILE_ID LOCALFILE",
	Short: "Save a local file as a draft whenever it changes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := parseID(args[0], "file id")
		if err != nil {
			return err
		}
		if authorFlagID == 0 {
			return fmt.Errorf("--author is required")
		}

		ctx, stop := signalContext()
		defer stop()

		return withApp("watch", func(a *app.App) error {
			fmt.Printf("Watching %s as file %d (Ctrl-C to stop)\n", args[1], fileID)
			return a.Watch(ctx, fileID, authorFlagID, args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
