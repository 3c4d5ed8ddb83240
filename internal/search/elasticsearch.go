package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"example.com/calendariko/config"
	"example.com/calendariko/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
)

// ElasticClient provides integration with Elasticsearch for event indexing.
// A nil *ElasticClient is valid and turns every call into a no-op, so the
// service works unchanged when search is disabled.
type ElasticClient struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticClient creates a new Elasticsearch client, or nil when disabled
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{client: client, index: cfg.Index}, nil
}

// IndexEvent indexes an event document keyed by event id
func (c *ElasticClient) IndexEvent(ctx context.Context, event *models.Event) error {
	if c == nil {
		return nil
	}

	doc := map[string]interface{}{
		"id":      event.ID,
		"band_id": event.BandID,
		"type":    event.Type,
		"title":   event.Title,
		"start":   event.Start,
		"end":     event.End,
		"status":  event.Status,
		"privacy": event.Privacy,
		"notes":   event.Notes,
	}
	if event.Band != nil {
		doc["band_name"] = event.Band.Name
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event document")
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: event.ID,
		Body:       bytes.NewReader(raw),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index request returned %s", res.Status())
	}
	return nil
}

// RemoveEvent deletes an event document from the index
func (c *ElasticClient) RemoveEvent(ctx context.Context, eventID string) error {
	if c == nil {
		return nil
	}

	req := esapi.DeleteRequest{
		Index:      c.index,
		DocumentID: eventID,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete request returned %s", res.Status())
	}
	return nil
}
