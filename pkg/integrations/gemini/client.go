// Package gemini is a small client for the Gemini REST API: the resumable
// Files API upload and generateContent.
//
//	c, err := gemini.NewClient(apiKey, gemini.WithRateLimit(5))
//	f, err := c.UploadFile(ctx, "fig1.png", "image/png", data)
//	resp, err := c.GenerateContent(ctx, "gemini-2.5-flash", &gemini.GenerateRequest{...})
//	text := resp.Text()
package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/integrations"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const apiKeyHeader = "x-goog-api-key"

// Client talks to the Gemini API.
type Client struct {
	*integrations.Client
	baseURL string
	logger  *log.Logger
}

type settings struct {
	baseURL string
	logger  *log.Logger
	opts    []integrations.ClientOption
}

// Option configures a [Client].
type Option func(*settings)

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.opts = append(s.opts, integrations.WithHTTPClient(hc)) }
}

// WithRateLimit caps requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(s *settings) { s.opts = append(s.opts, integrations.WithRateLimit(rps, 1)) }
}

// WithClientOptions passes options through to the shared HTTP client.
func WithClientOptions(opts ...integrations.ClientOption) Option {
	return func(s *settings) { s.opts = append(s.opts, opts...) }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New(errors.ErrCodeMissingCredential, "gemini API key is not set")
	}
	s := settings{baseURL: DefaultBaseURL, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&s)
	}
	return &Client{
		Client:  integrations.NewClient(map[string]string{apiKeyHeader: apiKey}, s.opts...),
		baseURL: s.baseURL,
		logger:  s.logger,
	}, nil
}

type fileEnvelope struct {
	File File `json:"file"`
}

// UploadFile uploads data with the resumable protocol: a start request that
// returns an upload URL, then a single upload-and-finalize request.
func (c *Client) UploadFile(ctx context.Context, name, mimeType string, data []byte) (*File, error) {
	meta, err := json.Marshal(map[string]any{"file": map[string]string{"display_name": name}})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode upload metadata")
	}
	start, err := c.Do(ctx, integrations.Request{
		Method: http.MethodPost,
		URL:    integrations.JoinURL(c.baseURL, "upload/v1beta/files"),
		Headers: map[string]string{
			"X-Goog-Upload-Protocol":              "resumable",
			"X-Goog-Upload-Command":               "start",
			"X-Goog-Upload-Header-Content-Length": strconv.Itoa(len(data)),
			"X-Goog-Upload-Header-Content-Type":   mimeType,
			"Content-Type":                        "application/json",
		},
		Body: meta,
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "start upload of %s", name)
	}
	uploadURL := start.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return nil, errors.New(errors.ErrCodeEmptyResponse, "start upload of %s: no upload URL returned", name)
	}

	resp, err := c.Do(ctx, integrations.Request{
		Method: http.MethodPost,
		URL:    uploadURL,
		Headers: map[string]string{
			"X-Goog-Upload-Offset":  "0",
			"X-Goog-Upload-Command": "upload, finalize",
		},
		Body: data,
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "upload %s", name)
	}
	var env fileEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode upload response for %s", name)
	}
	if env.File.URI == "" {
		return nil, errors.New(errors.ErrCodeEmptyResponse, "upload %s: response has no file URI", name)
	}
	if env.File.MIMEType == "" {
		env.File.MIMEType = mimeType
	}
	c.logger.Debug("uploaded file", "name", name, "file", env.File.Name, "bytes", len(data))
	return &env.File, nil
}

// DeleteFile deletes an uploaded file by its resource name ("files/abc").
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	_, err := c.Do(ctx, integrations.Request{
		Method: http.MethodDelete,
		URL:    integrations.JoinURL(c.baseURL, "v1beta/"+name),
	})
	if err != nil {
		return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "delete %s", name)
	}
	return nil
}

// GenerateContent runs model on req.
func (c *Client) GenerateContent(ctx context.Context, model string, req *GenerateRequest) (*GenerateResponse, error) {
	model = strings.TrimPrefix(model, "models/")
	if model == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no model given")
	}
	url := integrations.JoinURL(c.baseURL, "v1beta/models/"+model+":generateContent")

	var resp GenerateResponse
	if err := c.JSON(ctx, http.MethodPost, url, nil, req, &resp); err != nil {
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "generate content with %s", model)
	}
	if len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return nil, errors.New(errors.ErrCodeEmptyResponse, "generate content with %s: %s", model, reason)
	}
	if u := resp.UsageMetadata; u != nil {
		c.logger.Debug("generated content", "model", model, "prompt_tokens", u.PromptTokenCount, "output_tokens", u.CandidatesTokenCount)
	}
	return &resp, nil
}
