// Package client talks to a filedrop server over HTTP.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/azure/filedrop/internal/models"
	"github.com/azure/filedrop/internal/storage"
	"github.com/go-resty/resty/v2"
)

// Client is a thin wrapper over the upload, list, download and delete routes.
// Errors carry the same storage sentinels the server maps from.
type Client struct {
	client *resty.Client
}

// New creates a client for the server at baseURL
func New(baseURL string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(60 * time.Second).
			SetHeader("User-Agent", "filedrop-cli/1.0"),
	}
}

// Upload stores data under name and returns the name the server stored.
func (c *Client) Upload(name string, data []byte) (string, error) {
	var out models.UploadResponse
	resp, err := c.client.R().
		SetFileReader("file", name, bytes.NewReader(data)).
		SetResult(&out).
		Post("/upload")
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := checkResponse(resp); err != nil {
		return "", err
	}
	return out.Filename, nil
}

// List returns the stored entry names.
func (c *Client) List() ([]string, error) {
	var out models.ListResponse
	resp, err := c.client.R().
		SetResult(&out).
		Get("/list")
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Download returns the content of the entry called name.
func (c *Client) Download(name string) ([]byte, error) {
	resp, err := c.client.R().
		SetPathParam("filename", name).
		Get("/download/{filename}")
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Delete removes the entry called name.
func (c *Client) Delete(name string) error {
	resp, err := c.client.R().
		SetPathParam("filename", name).
		Delete("/delete/{filename}")
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return checkResponse(resp)
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	message := http.StatusText(resp.StatusCode())
	var body models.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		message = body.Error
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", storage.ErrInvalidName, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", storage.ErrNotFound, message)
	default:
		return fmt.Errorf("%w: server returned %d: %s", storage.ErrStorage, resp.StatusCode(), message)
	}
}
