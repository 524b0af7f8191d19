package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/faultline-io/faultline/internal/dlq"

	natsclient "github.com/faultline-io/faultline/common/messaging/nats"
)

var dlqListLimit int

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Dead-letter queue commands",
	Long:  "Inspect and manage envelopes the ingest pipeline gave up on",
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered envelopes",
	RunE:  runDLQList,
}

var dlqPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all dead-lettered envelopes",
	RunE:  runDLQPurge,
}

func init() {
	dlqListCmd.Flags().IntVar(&dlqListLimit, "limit", 50, "maximum entries to show")

	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqPurgeCmd)
	rootCmd.AddCommand(dlqCmd)
}

func connectDLQStream(ctx context.Context) (*natsclient.JetStreamClient, jetstream.Stream, error) {
	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = natsURL
	natsCfg.Name = "faultline-cli"

	js, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	stream, err := js.Stream(ctx, natsclient.IngestDLQStream.Name)
	if err != nil {
		js.Close()
		return nil, nil, err
	}
	return js, stream, nil
}

func runDLQList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	js, stream, err := connectDLQStream(ctx)
	if err != nil {
		return err
	}
	defer js.Close()

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("stream info: %w", err)
	}
	if info.State.Msgs == 0 {
		fmt.Println("Dead-letter queue is empty")
		return nil
	}

	// Ephemeral consumer so listing does not disturb the stream.
	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	batch, err := cons.FetchNoWait(dlqListLimit)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	shown := 0
	for msg := range batch.Messages() {
		var failed dlq.FailedEnvelope
		if err := json.Unmarshal(msg.Data(), &failed); err != nil {
			fmt.Printf("  [unreadable entry on %s: %v]\n", msg.Subject(), err)
			continue
		}

		fmt.Printf("%s  reason=%s  attempts=%d\n", failed.Timestamp.Format(time.RFC3339), failed.Reason, failed.Attempts)
		fmt.Printf("    error: %s\n", failed.Error)
		if len(failed.Raw) > 120 {
			fmt.Printf("    raw:   %s...\n", failed.Raw[:120])
		} else {
			fmt.Printf("    raw:   %s\n", failed.Raw)
		}
		shown++
	}

	fmt.Printf("\nShowing %d of %d dead-lettered envelopes\n", shown, info.State.Msgs)
	return nil
}

func runDLQPurge(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	js, stream, err := connectDLQStream(ctx)
	if err != nil {
		return err
	}
	defer js.Close()

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("stream info: %w", err)
	}

	if err := stream.Purge(ctx); err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	fmt.Printf("Purged %d dead-lettered envelopes\n", info.State.Msgs)
	return nil
}
