package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"strconv"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/extract"
)

// Extract sends text to the service for extraction.
//
// The request is validated first;
// invalid requests never reach the network.
func (c *Client) Extract(ctx context.Context, req extract.Request) (*extract.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.EntityTypes == nil {
		req.EntityTypes = []string{}
	}

	rep, err := c.postJSON(ctx, "/api/extract", req)
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("extract: %w", err))
	}
	return errtrace.Wrap2(decodeResponse(rep))
}

// Upload sends a file to the service for extraction.
//
// The upload is validated first;
// invalid uploads never reach the network.
func (c *Client) Upload(ctx context.Context, up extract.Upload) (*extract.Response, error) {
	if err := up.Validate(); err != nil {
		return nil, err
	}

	var (
		body bytes.Buffer
		mw   = multipart.NewWriter(&body)
	)
	fw, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if _, err := fw.Write(up.Content); err != nil {
		return nil, errtrace.Wrap(err)
	}
	for _, typ := range up.EntityTypes {
		if err := mw.WriteField("entity_types", typ); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	fields := []struct{ name, value string }{
		{"min_confidence", strconv.FormatFloat(up.MinConfidence, 'f', -1, 64)},
		{"domain", up.Domain},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errtrace.Wrap(err)
	}

	rep, err := c.post(ctx, "/api/upload", mw.FormDataContentType(), body.Bytes())
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("upload %q: %w", up.Filename, err))
	}
	return errtrace.Wrap2(decodeResponse(rep))
}

func decodeResponse(rep *reply) (*extract.Response, error) {
	resp, err := extract.DecodeResponse(rep.Body)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Download is a file produced by the service.
type Download struct {
	// Filename offered to the user.
	Filename string

	ContentType string
	Body        []byte
}

type exportRequest struct {
	Entities []extract.Entity `json:"entities"`
	Events   []extract.Event  `json:"events"`
}

// Export asks the service to render entities and events
// in the given format ("json" or "csv").
func (c *Client) Export(ctx context.Context, format string, entities []extract.Entity, events []extract.Event) (*Download, error) {
	if entities == nil {
		entities = []extract.Entity{}
	}
	if events == nil {
		events = []extract.Event{}
	}

	rep, err := c.postJSON(ctx, "/api/export/"+url.PathEscape(format), exportRequest{
		Entities: entities,
		Events:   events,
	})
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("export %v: %w", format, err))
	}

	contentType := rep.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Download{
		Filename:    extract.ExportFilename(format),
		ContentType: contentType,
		Body:        rep.Body,
	}, nil
}

// Domains lists the domains the service can extract from.
func (c *Client) Domains(ctx context.Context) ([]string, error) {
	var out struct {
		Domains []string `json:"domains"`
	}
	if err := c.getJSON(ctx, "/api/domains", nil, &out); err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("list domains: %w", err))
	}
	return out.Domains, nil
}

// EntityTypes lists the entity types supported for a domain.
func (c *Client) EntityTypes(ctx context.Context, domain string) ([]string, error) {
	if domain == "" {
		domain = extract.DefaultDomain
	}

	var out struct {
		EntityTypes []string `json:"entity_types"`
	}
	query := url.Values{"domain": {domain}}
	if err := c.getJSON(ctx, "/api/entity-types", query, &out); err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("list entity types for %q: %w", domain, err))
	}
	return out.EntityTypes, nil
}

// SampleTexts returns example documents offered by the service.
func (c *Client) SampleTexts(ctx context.Context) ([]string, error) {
	var out struct {
		SampleTexts []string `json:"sample_texts"`
	}
	if err := c.getJSON(ctx, "/api/sample-data", nil, &out); err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("list sample texts: %w", err))
	}
	return out.SampleTexts, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	rep, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	return errtrace.Wrap(json.Unmarshal(rep.Body, dest))
}
