package store

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/faultline-io/faultline/pkg/event"
)

// OpenSearchConfig holds connection settings for the event index.
type OpenSearchConfig struct {
	URL           string
	Username      string
	Password      string
	TLSSkipVerify bool
	IndexPrefix   string
}

// OpenSearchStore persists events into per-project indices. Documents
// become searchable only after the index refresh interval, so reads are
// eventually consistent with writes.
type OpenSearchStore struct {
	client *opensearch.Client
	prefix string
}

// NewOpenSearchStore connects and pings the cluster.
func NewOpenSearchStore(cfg OpenSearchConfig) (*OpenSearchStore, error) {
	httpTransport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("ping opensearch: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "faultline"
	}

	return &OpenSearchStore{client: client, prefix: prefix}, nil
}

func (s *OpenSearchStore) indexName(project int) string {
	return fmt.Sprintf("%s-events-%d", s.prefix, project)
}

// Save indexes the event document keyed by its event id.
func (s *OpenSearchStore) Save(ctx context.Context, ev *event.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      s.indexName(ev.Project),
		DocumentID: string(ev.ID),
		Body:       bytes.NewReader(body),
	}

	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index event %s: %w", ev.ID, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index event %s: %s", ev.ID, resp.Status())
	}
	return nil
}

// GetByID fetches the event document directly by id.
func (s *OpenSearchStore) GetByID(ctx context.Context, project int, id event.ID) (*event.Event, error) {
	req := opensearchapi.GetRequest{
		Index:      s.indexName(project),
		DocumentID: string(id),
	}

	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get event %s: %s", id, resp.Status())
	}

	var doc struct {
		Source event.Event `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", id, err)
	}
	return &doc.Source, nil
}
