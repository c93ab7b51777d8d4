package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/spf13/cobra"
)

func newUploadCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Encrypt a file and upload it for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading file: %w", err)
			}

			s, cleanup := a.startSpinner("Encrypting and uploading...")
			defer cleanup()

			f, err := a.uploader.Upload(ctx, data, filepath.Base(args[0]))
			if err != nil {
				return err
			}

			s.FinalMSG = fmt.Sprintf("%s Uploaded %s (id %s, status %s)", successMark, f.OriginalFilename, f.ID, f.Status)
			return nil
		},
	}
}

func newListCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			files, err := a.api.ListFiles(ctx)
			if err != nil {
				return err
			}
			printFiles(a.out, files, false)
			return nil
		},
	}
}

func newDownloadCommand(a *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download and decrypt a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			s, cleanup := a.startSpinner("Downloading...")
			defer cleanup()

			path, err := a.downloader.Save(ctx, args[0], a.role(), dir)
			if err != nil {
				return err
			}

			s.FinalMSG = fmt.Sprintf("%s Saved to %s", successMark, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to save into (default ./downloads)")
	return cmd
}

func newPreviewCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <id>",
		Short: "Decrypt an image or PDF into a temporary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			p, err := a.downloader.Preview(ctx, args[0], a.role())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Preview ready: %s (%s)\n", successMark, p.Path, p.MimeType)
			return nil
		},
	}
}

func newDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			if err := a.api.DeleteFile(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s Deleted %s\n", successMark, args[0])
			return nil
		},
	}
}

func newPendingCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List files of your reports waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			files, err := a.api.PendingFiles(ctx)
			if err != nil {
				return err
			}
			printFiles(a.out, files, true)
			return nil
		},
	}
}

func newReviewCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "review <id> <approve|reject>",
		Short: "Approve or reject a pending file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			action := args[1]
			if action != models.ActionApprove && action != models.ActionReject {
				return fmt.Errorf("unknown action %q, use %s or %s", action, models.ActionApprove, models.ActionReject)
			}

			t, err := a.api.ReviewFile(ctx, args[0], action)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s File %s is now %s\n", successMark, t.ID, t.Status)
			return nil
		},
	}
}
