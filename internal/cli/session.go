package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/rachana-boutique/internal/cleanup"
	"github.com/spf13/cobra"
)

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Copy the guest cart into the signed-in cart",
		Long: `Copy every guest cart line into the signed-in cart of the API, once per
user. The guest cart is left as is. Run logout to allow another merge.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Token == "" {
				return NewExitError(ExitCommandError, "merge needs --token")
			}
			userID, err := resolveUser(rootOpts, userID)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(rootOpts, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			summary, err := ws.coordinator().RunMerge(cmd.Context(), userID, remoteClient(rootOpts))
			if err != nil {
				return WrapExitError(ExitCommandError, "merge failed", err)
			}

			return ws.formatter(cmd, rootOpts).Success(summary, func(w io.Writer) {
				switch {
				case summary.Skipped:
					fmt.Fprintf(w, "Already merged for %s\n", userID)
				case summary.Total == 0:
					fmt.Fprintln(w, "Nothing to merge")
				default:
					fmt.Fprintf(w, "Copied %d of %d item(s)\n", summary.Copied, summary.Total)
					for _, f := range summary.Failures {
						fmt.Fprintf(w, "  %s %s: %s\n", f.ProductID, f.ColorID, f.Reason)
					}
					if summary.Abandoned > 0 {
						fmt.Fprintf(w, "  %d item(s) not attempted\n", summary.Abandoned)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (default: from --token)")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the merge of one user; the guest cart is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := resolveUser(rootOpts, userID)
			if err != nil {
				return err
			}

			ws, err := openWorkspace(rootOpts, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.coordinator().ResetMergeFlag(cmd.Context(), userID); err != nil {
				return WrapExitError(ExitCommandError, "logout failed", err)
			}
			return ws.formatter(cmd, rootOpts).Success(map[string]string{"user_id": userID}, func(w io.Writer) {
				fmt.Fprintf(w, "Logged out %s\n", userID)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (default: from --token)")
	return cmd
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <product-id[:color-id]>...",
		Short: "Remove purchased lines from the guest and signed-in carts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(rootOpts, false)
			if err != nil {
				return err
			}
			defer ws.Close()

			purchased := make([]cleanup.PurchasedItem, 0, len(args))
			for _, arg := range args {
				productID, colorID, _ := strings.Cut(arg, ":")
				purchased = append(purchased, cleanup.PurchasedItem{ProductID: productID, ColorID: colorID})
			}

			var manager *cleanup.Manager
			userID := userFromToken(rootOpts.Token)
			if userID != "" {
				manager = cleanup.NewManager(ws.cart, remoteClient(rootOpts))
			} else {
				manager = cleanup.NewManager(ws.cart, nil)
			}

			summary := manager.CleanupPurchased(cmd.Context(), userID, purchased)
			return ws.formatter(cmd, rootOpts).Success(summary, func(w io.Writer) {
				fmt.Fprintf(w, "Removed %d locally, %d from signed-in cart, %d failed\n",
					summary.LocalRemoved, summary.RemoteRemoved, summary.Failed)
			})
		},
	}
}

// resolveUser picks the user a command acts for. The API files remote
// changes under the token's user, so --user may only restate it.
func resolveUser(opts *RootOptions, flagUser string) (string, error) {
	tokenUser := userFromToken(opts.Token)
	switch {
	case flagUser == "" && tokenUser == "":
		return "", NewExitError(ExitCommandError, "cannot tell the user; pass --user or --token")
	case flagUser == "":
		return tokenUser, nil
	case tokenUser != "" && tokenUser != flagUser:
		return "", NewExitError(ExitCommandError, fmt.Sprintf("--user %s does not match the token user %s", flagUser, tokenUser))
	}
	return flagUser, nil
}
