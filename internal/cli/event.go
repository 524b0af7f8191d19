package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/faultline-io/faultline/internal/store"
	"github.com/faultline-io/faultline/pkg/event"
)

var (
	eventOpenSearchURL string
	eventUsername      string
	eventPassword      string
	eventSkipVerify    bool
	eventIndexPrefix   string
	eventWait          time.Duration
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event store commands",
}

var eventGetCmd = &cobra.Command{
	Use:   "get <project> <event-id>",
	Short: "Fetch a stored event by id",
	Long: `Fetch an event from the store. With --wait the lookup polls until
the event becomes visible, which covers the indexing lag right after
ingestion.

Examples:
  faultline event get 1 4f8e1cf1a7a44b08b2f0b5f31a9a4a2d
  faultline event get 1 4f8e1cf1a7a44b08b2f0b5f31a9a4a2d --wait 30s`,
	Args: cobra.ExactArgs(2),
	RunE: runEventGet,
}

func init() {
	eventGetCmd.Flags().StringVar(&eventOpenSearchURL, "opensearch-url", "https://localhost:9200", "OpenSearch URL")
	eventGetCmd.Flags().StringVar(&eventUsername, "username", "admin", "OpenSearch username")
	eventGetCmd.Flags().StringVar(&eventPassword, "password", "", "OpenSearch password (or FAULTLINE_OPENSEARCH_PASSWORD)")
	eventGetCmd.Flags().BoolVar(&eventSkipVerify, "insecure", true, "skip TLS certificate verification")
	eventGetCmd.Flags().StringVar(&eventIndexPrefix, "index-prefix", "faultline", "event index prefix")
	eventGetCmd.Flags().DurationVar(&eventWait, "wait", 0, "poll until the event is visible, up to this long")

	eventCmd.AddCommand(eventGetCmd)
	rootCmd.AddCommand(eventCmd)
}

func runEventGet(cmd *cobra.Command, args []string) error {
	project, err := strconv.Atoi(args[0])
	if err != nil || project <= 0 {
		return fmt.Errorf("invalid project id %q", args[0])
	}

	id := event.ID(args[1])
	if !id.Valid() {
		return fmt.Errorf("invalid event id %q", args[1])
	}

	password := eventPassword
	if password == "" {
		password = os.Getenv("FAULTLINE_OPENSEARCH_PASSWORD")
	}

	backing, err := store.NewOpenSearchStore(store.OpenSearchConfig{
		URL:           eventOpenSearchURL,
		Username:      eventUsername,
		Password:      password,
		TLSSkipVerify: eventSkipVerify,
		IndexPrefix:   eventIndexPrefix,
	})
	if err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}

	ctx := context.Background()

	var ev *event.Event
	if eventWait > 0 {
		ev, err = store.WaitForEvent(ctx, backing, project, id, eventWait, 250*time.Millisecond)
	} else {
		ev, err = backing.GetByID(ctx, project, id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrIngestTimeout) {
			return fmt.Errorf("event %s not found in project %d", id, project)
		}
		return err
	}

	out, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
