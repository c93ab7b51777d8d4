package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/sealdrop/internal/client/client"
	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/fatih/color"
)

var (
	successMark = color.GreenString("✓")
	errorMark   = color.RedString("✗")
	hintMark    = color.CyanString("→")
)

// startSpinner shows message next to a spinner until cleanup is called.
// A FinalMSG set on the spinner is printed to the app output on cleanup.
func (a *App) startSpinner(message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()

	cleanup := func() {
		finalMsg := s.FinalMSG
		s.FinalMSG = ""
		s.Stop()
		if finalMsg != "" {
			fmt.Fprintln(a.out, finalMsg)
		}
	}
	return s, cleanup
}

// describeError turns well-known failures into a message for the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrNoKeyFound):
		return "no usable encryption key on this device; files uploaded from another device cannot be decrypted here"
	case errors.Is(err, common.ErrDecryptionFailed):
		return "the file could not be decrypted with the available key"
	case errors.Is(err, common.ErrBlobUnavailable):
		return "file content is currently unavailable, try again later"
	case errors.Is(err, common.ErrNotPreviewable):
		return "this file type cannot be previewed, use download instead"
	case errors.Is(err, common.ErrEscrowMissing), errors.Is(err, common.ErrEscrowCorrupt):
		return "the escrowed key of this file is damaged; contact the operator"
	case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrInvalidToken):
		return "session expired, run 'sealdrop login' again"
	case errors.Is(err, common.ErrAccountRejected):
		return "this account has been rejected"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	}
	return err.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printFiles(w io.Writer, files []models.File, withOwner bool) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if withOwner {
		fmt.Fprintln(tw, "ID\tNAME\tOWNER\tSTATUS\tCREATED")
	} else {
		fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tAPPROVED BY\tCREATED")
	}
	for _, f := range files {
		if withOwner {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.OriginalFilename, orDash(f.OwnerEmail), f.Status, formatTime(f.CreatedAt))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.OriginalFilename, f.Status, orDash(f.ApprovedBy), formatTime(f.CreatedAt))
		}
	}
	_ = tw.Flush()
}

func printUsers(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tSTATUS\tMANAGER")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.Status, orDash(u.ManagerEmail))
	}
	_ = tw.Flush()
}
