package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath       string
	CatalogPath  string
	APIURL       string
	Token        string
	Format       string // "json" | "text"
	KafkaBrokers []string
	CartTopic    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for cartctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "Rachana Boutique cart client",
		Long: `cartctl keeps a guest cart in a local SQLite file, the way a browser keeps
one in local storage, and merges it into the signed-in cart of the API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", envOr("RB_CART_DB", "cart.db"), "guest cart database file")
	cmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", envOr("CATALOG_PATH", "catalog.yaml"), "catalog YAML file")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api", envOr("RB_API_URL", "http://localhost:8080"), "cart API base URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("RB_TOKEN"), "access token of the signed-in user")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringSliceVar(&opts.KafkaBrokers, "kafka-brokers", nil, "publish cart changes to these brokers")
	cmd.PersistentFlags().StringVar(&opts.CartTopic, "cart-topic", "cart-changes", "cart change topic")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewVariantCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
