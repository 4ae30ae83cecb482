package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/example/rachana-boutique/internal/infrastructure/kafka"
	"github.com/example/rachana-boutique/internal/notify"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print cart change notifications from Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(rootOpts.KafkaBrokers) == 0 {
				return NewExitError(ExitCommandError, "watch needs --kafka-brokers")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer := kafka.NewConsumer(rootOpts.KafkaBrokers, rootOpts.CartTopic, groupID)
			defer consumer.Close()

			out := cmd.OutOrStdout()
			err := consumer.Consume(ctx, func(_ context.Context, key, value []byte) error {
				var change notify.CartChanged
				if err := json.Unmarshal(value, &change); err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return json.NewEncoder(out).Encode(change)
				}
				fmt.Fprintf(out, "%s  %s changed\n", change.ChangedAt.Format("15:04:05"), change.Scope)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "cartctl-watch", "consumer group id")
	return cmd
}
