// Package backend is the typed client for the external analysis API. The
// shapes are the collaborator's contract; this service assumes them and never
// validates backend content.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"SigBoard/internal/domain/models"
	xhttp "SigBoard/pkg/http"
)

// Client calls the analysis backend.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

// NewClient creates a backend client with the forwarder's timeout bound.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type dataResponse struct {
	Data map[string]models.MarketEntry `json:"data"`
}

// FetchData retrieves the full market snapshot.
func (c *Client) FetchData(ctx context.Context) (models.Snapshot, error) {
	var res dataResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/api/data",
	}, &res)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("fetch data: %w", err)
	}

	return models.Snapshot{
		Entries:   res.Data,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// AddPair registers a new trading pair for analysis.
func (c *Client) AddPair(ctx context.Context, symbol string) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    c.baseURL + "/api/pairs/add",
		Body:   map[string]string{"symbol": symbol},
	}, nil)
	if err != nil {
		return fmt.Errorf("add pair %s: %w", symbol, err)
	}
	return nil
}

// RemovePairs removes trading pairs from analysis.
func (c *Client) RemovePairs(ctx context.Context, symbols []string) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    c.baseURL + "/api/pairs/remove",
		Body:   map[string][]string{"symbols": symbols},
	}, nil)
	if err != nil {
		return fmt.Errorf("remove pairs: %w", err)
	}
	return nil
}

// UploadPairs sends a symbol list file as a multipart upload.
func (c *Client) UploadPairs(ctx context.Context, filename string, content []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("upload pairs: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("upload pairs: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("upload pairs: %w", err)
	}

	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  http.MethodPost,
		URL:     c.baseURL + "/api/pairs/upload",
		Headers: map[string]string{"Content-Type": mw.FormDataContentType()},
		Body:    buf.Bytes(),
	}, nil)
	if err != nil {
		return fmt.Errorf("upload pairs: %w", err)
	}
	return nil
}

// ExportPairs downloads the pair list as CSV bytes.
func (c *Client) ExportPairs(ctx context.Context) ([]byte, error) {
	var out []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/api/pairs/export",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("export pairs: %w", err)
	}
	return out, nil
}
