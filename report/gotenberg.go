package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PaperOptions are the Chromium page settings, in inches.
type PaperOptions struct {
	Width             float64
	Height            float64
	MarginTop         float64
	MarginBottom      float64
	MarginLeft        float64
	MarginRight       float64
	PrintBackground   bool
	PreferCSSPageSize bool
}

// A4 returns A4 portrait with the page margins taken from the document CSS.
func A4() PaperOptions {
	return PaperOptions{
		Width:             8.27,
		Height:            11.7,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// StatusError is returned when Gotenberg answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gotenberg response %d: %s", e.Code, e.Body)
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a self-contained HTML document into a PDF.
func (c *Client) RenderHTML(ctx context.Context, html string, paper PaperOptions) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	for _, field := range paper.fields() {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return io.ReadAll(resp.Body)
}

func (p PaperOptions) fields() [][2]string {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	var out [][2]string
	if p.Width > 0 && p.Height > 0 {
		out = append(out, [2]string{"paperWidth", format(p.Width)}, [2]string{"paperHeight", format(p.Height)})
	}
	out = append(out,
		[2]string{"marginTop", format(p.MarginTop)},
		[2]string{"marginBottom", format(p.MarginBottom)},
		[2]string{"marginLeft", format(p.MarginLeft)},
		[2]string{"marginRight", format(p.MarginRight)},
		[2]string{"printBackground", strconv.FormatBool(p.PrintBackground)},
		[2]string{"preferCssPageSize", strconv.FormatBool(p.PreferCSSPageSize)},
	)
	return out
}
