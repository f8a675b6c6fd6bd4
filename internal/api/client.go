package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// TokenSource yields the bearer token for outgoing requests. An empty token
// sends the request without an Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource holding a fixed token.
type StaticToken string

// Token returns the token.
func (t StaticToken) Token() string { return string(t) }

// Config describes how to reach the remote API.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs requests against the remote REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// New creates a client without credentials.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api: base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: base url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{httpClient: hc, baseURL: base}, nil
}

// WithSession returns a copy of c that authenticates with ts.
func (c *Client) WithSession(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// BaseURL returns the configured base.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one API call. Body is sent as JSON unless Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Form   *Form
}

// Form is a multipart payload.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// FormField is a plain multipart value.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a multipart file part.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Do sends req and decodes a successful JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}
	return c.do(httpReq, out)
}

// Get is shorthand for a GET with query params.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Patch sends body as JSON.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) endpoint(path string, query url.Values) string {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := c.endpoint(r.Path, r.Query)

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.Form != nil:
		buf, ct, err := encodeForm(r.Form)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case r.Body != nil:
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, err
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api %s %s: read body: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	if v == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("api %s %s: decode: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func encodeForm(f *Form) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for _, field := range f.Fields {
		if err := mw.WriteField(field.Name, field.Value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}
