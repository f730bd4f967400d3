package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/machamp0714/linear-time-tracker/internal/domain"
	"github.com/rs/zerolog"
)

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		endpoint: cfg.LinearEndpoint,
		apiKey:   cfg.LinearAPIKey,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		log:      log,
	}
}

// Configured reports whether a Linear API key is present. The key is
// optional; without it the issue sync feature is simply off.
func (c *Client) Configured() bool { return strings.TrimSpace(c.apiKey) != "" }

func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	if !c.Configured() { return errors.New("linear: missing api key") }
	b, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil { return err }
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil { return err }
	// Linear takes the raw key, no Bearer prefix.
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil { return err }
	defer resp.Body.Close()

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 300 { return fmt.Errorf("Linear API error: %d", resp.StatusCode) }
		return err
	}
	if resp.StatusCode >= 300 || len(envelope.Errors) > 0 {
		if len(envelope.Errors) > 0 && envelope.Errors[0].Message != "" {
			return errors.New(envelope.Errors[0].Message)
		}
		return fmt.Errorf("Linear API error: %d", resp.StatusCode)
	}
	if out == nil { return nil }
	return json.Unmarshal(envelope.Data, out)
}

// IssueByIdentifier resolves an issue by its human identifier (e.g. TIM-1).
// Lookup failure is non-fatal by design: any error, including not-found,
// yields (nil, nil) so callers can skip sync silently.
func (c *Client) IssueByIdentifier(ctx context.Context, identifier string) (*domain.Issue, error) {
	const q = `query ($id: String!) { issue(id: $id) { id identifier } }`
	var out struct {
		Issue *domain.Issue `json:"issue"`
	}
	if err := c.graphql(ctx, q, map[string]any{"id": identifier}, &out); err != nil {
		c.log.Debug().Err(err).Str("identifier", identifier).Msg("linear: issue lookup failed")
		return nil, nil
	}
	return out.Issue, nil
}

func (c *Client) IssueAttachments(ctx context.Context, issueID string) ([]domain.Attachment, error) {
	const q = `query ($issueId: String!) { issue(id: $issueId) { attachments { nodes { id url title subtitle metadata } } } }`
	var out struct {
		Issue struct {
			Attachments struct {
				Nodes []domain.Attachment `json:"nodes"`
			} `json:"attachments"`
		} `json:"issue"`
	}
	if err := c.graphql(ctx, q, map[string]any{"issueId": issueID}, &out); err != nil { return nil, err }
	return out.Issue.Attachments.Nodes, nil
}

// CreateAttachment upserts an attachment on the issue. Deduplication is the
// remote mutation's job: attachmentCreate matches on the attachment URL, so a
// stable URL per issue makes repeated syncs update one attachment in place.
func (c *Client) CreateAttachment(ctx context.Context, issueID, title, subtitle, url string, metadata map[string]any) (*domain.Attachment, error) {
	const q = `mutation ($input: AttachmentCreateInput!) { attachmentCreate(input: $input) { success attachment { id metadata } } }`
	input := map[string]any{
		"issueId":  issueID,
		"title":    title,
		"subtitle": subtitle,
		"url":      url,
		"metadata": metadata,
	}
	var out struct {
		AttachmentCreate struct {
			Success    bool              `json:"success"`
			Attachment *domain.Attachment `json:"attachment"`
		} `json:"attachmentCreate"`
	}
	if err := c.graphql(ctx, q, map[string]any{"input": input}, &out); err != nil { return nil, err }
	if !out.AttachmentCreate.Success {
		return nil, errors.New("linear: attachmentCreate reported failure")
	}
	return out.AttachmentCreate.Attachment, nil
}
