package cli

import (
	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// NewRootCommand builds the sealdrop command tree over a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "sealdrop",
		Short: "Share files with end-to-end encryption and manager approval",
		Long: `sealdrop encrypts files on this device before uploading them. The server
stores ciphertext only; a manager approves or rejects each upload and an
admin can recover any file through the key escrow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global settings are read by the config loader before the command tree
	// is built; they are declared here so that cobra accepts them.
	var (
		serverURL, dbPath, logLevel, configFile string
		timeout                                 int
	)
	pf := root.PersistentFlags()
	pf.StringVarP(&serverURL, "server", "s", "", "base URL of the server")
	pf.StringVarP(&dbPath, "db", "d", "", "path of the local database")
	pf.IntVarP(&timeout, "timeout", "t", 0, "request timeout in seconds")
	pf.StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&configFile, "config", "c", "", "path of a JSON config file")

	root.AddCommand(
		newSignupCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newPasswdCommand(a),
		newUploadCommand(a),
		newListCommand(a),
		newDownloadCommand(a),
		newPreviewCommand(a),
		newDeleteCommand(a),
		newPendingCommand(a),
		newReviewCommand(a),
		newUsersCommand(a),
		newCreateUserCommand(a),
		newSetStatusCommand(a),
		newAdminFilesCommand(a),
	)
	return root
}
