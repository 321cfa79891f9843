// Package cli provides the command-line interface for the journal application.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradevault/internal/store"
)

// addSyncCommands adds cloud sync commands.
func addSyncCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Cloud sync management",
		Long: `Associate the journal with a remote identity and inspect sync state.

Signing in clears the in-memory view, opens realtime subscriptions, and
uploads any pre-existing local data once per identity. Signing out
restores the untouched local snapshot.`,
	}

	cmd.AddCommand(newSyncStatusCmd(app))
	cmd.AddCommand(newSyncSignInCmd(app))
	cmd.AddCommand(newSyncSignOutCmd(app))
	cmd.AddCommand(newSyncForceCmd(app))

	rootCmd.AddCommand(cmd)
}

func newSyncStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			authority := app.Store.Authority()
			state := app.Store.SyncStatus()
			identity := app.Store.Identity()

			if output.IsJSON() {
				return output.JSON(map[string]string{
					"authority": string(authority),
					"state":     string(state),
					"identity":  identity,
				})
			}

			if authority == store.AuthorityLocal {
				output.Bold("Local mode")
				output.Println("All data stays in the local store.")
				if app.Remote == nil {
					output.Dim("No remote configured; set remote.redis_addr to enable sync.")
				}
				return nil
			}

			output.Bold("Cloud mode")
			output.Printf("  Identity:  %s\n", identity)
			output.Printf("  Authority: %s\n", authority)
			output.Printf("  Status:    %s\n", output.SyncBadge(state))
			return nil
		},
	}
}

func newSyncSignInCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin [identity]",
		Short: "Sign in to the remote",
		Long: `Sign in with a remote identity and switch to cloud authority.

Without an argument the configured remote.identity is used. The first
sign-in per identity uploads any pre-existing local data.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			identity := app.Config.Remote.Identity
			if len(args) > 0 {
				identity = args[0]
			}
			if identity == "" {
				output.Error("No identity given and none configured.")
				return fmt.Errorf("identity required")
			}
			if app.Remote == nil {
				output.Error("No remote configured; set remote.redis_addr first.")
				return fmt.Errorf("remote not configured")
			}

			if err := app.Store.SignIn(identity); err != nil {
				output.Error("Sign-in failed: %v", err)
				return err
			}

			wait, _ := cmd.Flags().GetDuration("wait")
			deadline := time.Now().Add(wait)
			for app.Store.Authority() == store.AuthorityCloudInit && time.Now().Before(deadline) {
				time.Sleep(50 * time.Millisecond)
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{
					"identity":  identity,
					"authority": string(app.Store.Authority()),
				})
			}
			output.Success("✓ Signed in as %s", identity)
			output.Printf("  Status: %s\n", output.SyncBadge(app.Store.SyncStatus()))
			return nil
		},
	}

	cmd.Flags().Duration("wait", 3*time.Second, "how long to wait for the first cloud snapshot")

	return cmd
}

func newSyncSignOutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and return to local mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			identity := app.Store.Identity()
			app.Store.SignOut()

			if output.IsJSON() {
				return output.JSON(map[string]string{"signed_out": identity})
			}
			output.Success("✓ Signed out")
			output.Println("Local snapshot restored.")
			return nil
		},
	}
}

func newSyncForceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "force",
		Short: "Force a full re-upload of local data",
		Long:  "Re-upload every local collection to the signed-in identity, ignoring the one-time migration marker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := app.Store.ForceSync(ctx); err != nil {
				output.Error("Force sync failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"synced": true})
			}
			output.Success("✓ Local data re-uploaded")
			return nil
		},
	}
}
