package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/faultline-io/faultline/pkg/client"
	"github.com/faultline-io/faultline/pkg/event"
)

var (
	seedProject     int
	seedCount       int
	seedEnvironment string
	seedOrgID       int64
	seedOrgSlug     string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Send generated test events through the relay",
	Long: `Generate realistic error events and capture them through the SDK
client against a running relay.

Examples:
  # Send 10 events to project 1
  faultline seed

  # Flood project 42 with 500 events
  faultline seed --project 42 --count 500

  # Tag events with an organization
  faultline seed --org-id 77 --org-slug acme`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedProject, "project", 1, "project id to send events to")
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of events to generate")
	seedCmd.Flags().StringVar(&seedEnvironment, "environment", "development", "environment tag on generated events")
	seedCmd.Flags().Int64Var(&seedOrgID, "org-id", 0, "bind an organization id to each event")
	seedCmd.Flags().StringVar(&seedOrgSlug, "org-slug", "", "organization slug (used with --org-id)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	sdk, err := client.New(client.Config{
		RelayURL: relayURL,
		Project:  seedProject,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer sdk.Close()

	sdk.GlobalScope().SetTag("environment", seedEnvironment)
	sdk.GlobalScope().SetTag("seeded", "true")

	var scope *client.Scope
	if seedOrgID != 0 {
		scope = client.NewScope()
		client.BindOrganizationContext(scope, event.Organization{
			ID:   seedOrgID,
			Slug: seedOrgSlug,
		})
	}

	ctx := context.Background()
	for i := 0; i < seedCount; i++ {
		ev := event.New(seedProject, gofakeit.HackerPhrase())
		ev.SetTag("service", gofakeit.AppName())
		ev.SetTag("server", gofakeit.DomainName())
		ev.SetExtra("client_ip", gofakeit.IPv4Address())
		ev.SetExtra("user_agent", gofakeit.UserAgent())
		ev.SetContext("runtime", map[string]any{
			"name":    "go",
			"version": gofakeit.AppVersion(),
		})

		id := sdk.CaptureEvent(ctx, ev, scope)
		fmt.Printf("captured %s\n", id)
	}

	if !sdk.Flush(30 * time.Second) {
		return fmt.Errorf("flush timed out; some events may not have been delivered")
	}

	fmt.Printf("\nSent %d events to project %d via %s\n", seedCount, seedProject, relayURL)
	return nil
}
