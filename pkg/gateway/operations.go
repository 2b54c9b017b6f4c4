package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/citychat/pkg/ports"
	"github.com/aretw0/citychat/pkg/sensor"
)

var _ ports.DataGateway = (*Client)(nil)

// FetchLatestReadings returns the latest reading of every node.
func (c *Client) FetchLatestReadings(ctx context.Context) (readings []sensor.Reading, err error) {
	defer func(start time.Time) { c.observe("latest", start, err) }(time.Now())

	url := c.url("/verticals/all/latest")
	resp, err := c.doOK(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Failed to fetch latest readings", "url", url, "err", err)
		return nil, fmt.Errorf("fetch latest readings: %w", err)
	}

	readings, err = sensor.DecodeLatest(resp.body)
	if err != nil {
		c.logger.Error("Failed to decode latest readings", "url", url, "err", err)
		return nil, err
	}
	return readings, nil
}

// AskNaturalLanguage posts a question to the inference endpoint and returns the answer.
func (c *Client) AskNaturalLanguage(ctx context.Context, question string) string {
	start := time.Now()
	url := c.url("/chatbot-api/query")

	resp, err := c.doOK(ctx, http.MethodPost, url, map[string]string{c.queryField: question})
	if err != nil {
		c.observe("query", start, err)
		c.logger.Error("Error communicating with backend", "url", url, "err", err)
		return ApologyUnreachable
	}
	if !resp.isJSON() {
		err := errors.New("non-JSON response")
		c.observe("query", start, err)
		c.logger.Error("Server returned non-JSON response", "url", url, "content_type", resp.contentType)
		return ApologyFormat
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		c.observe("query", start, err)
		c.logger.Error("Failed to decode backend answer", "url", url, "err", err)
		return ApologyUnreachable
	}
	c.observe("query", start, nil)
	if out.Response == "" {
		return ApologyEmpty
	}
	return out.Response
}

// PublishTable uploads markdown to the paste service and returns its shareable URL.
func (c *Client) PublishTable(ctx context.Context, markdown string) (link string, err error) {
	defer func(start time.Time) { c.observe("publish", start, err) }(time.Now())

	resp, err := c.doOK(ctx, http.MethodPost, c.pasteURL, map[string]string{"data": markdown})
	if err != nil {
		c.logger.Error("Failed to publish table", "url", c.pasteURL, "err", err)
		return "", fmt.Errorf("publish table: %w", err)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return "", fmt.Errorf("publish table: decode: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("publish table: empty id")
	}
	return fmt.Sprintf("%s/%s.md", c.shareURL, out.ID), nil
}

// FetchVisualizationData asks the debug endpoint for chartable data about query.
func (c *Client) FetchVisualizationData(ctx context.Context, query string) (vis *sensor.Visualization, err error) {
	defer func(start time.Time) { c.observe("debug", start, err) }(time.Now())

	url := c.url("/chatbot-api/debug")
	resp, err := c.doOK(ctx, http.MethodPost, url, map[string]string{"query": query})
	if err != nil {
		c.logger.Error("Failed to fetch visualization data", "url", url, "err", err)
		return nil, fmt.Errorf("fetch visualization data: %w", err)
	}
	return sensor.ParseVisualization(resp.body)
}
