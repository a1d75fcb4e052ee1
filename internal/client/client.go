// Package client talks to the signage server on behalf of a player.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
)

// StatusError is returned for any non-2xx answer the caller did not expect.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// ContentResult is one answer of the content endpoint. NotModified is set
// when the server confirmed the caller's ETag, in which case Content is nil.
type ContentResult struct {
	Content     *packets.ScreenContentResponse
	ETag        string
	NotModified bool
}

const (
	// RequestTimeout bounds a whole register, heartbeat or content call.
	RequestTimeout = 30 * time.Second
	// StallTimeout bounds connecting, waiting for response headers and each
	// gap between reads of a download. A download has no total limit.
	StallTimeout = 30 * time.Second
)

type Client struct {
	base       *url.URL
	identifier string
	http       *http.Client
	// download shares the transport of http but never times out as a whole
	download  *http.Client
	readStall time.Duration
}

// New builds a client for serverURL. A nil httpClient gets RequestTimeout
// for API calls and a transport bounded by StallTimeout. Downloads reuse the
// client's transport without its Timeout, so large media is never cut off
// while bytes keep flowing.
func New(serverURL, identifier string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: RequestTimeout, Transport: newTransport()}
	}
	download := *httpClient
	download.Timeout = 0
	return &Client{
		base:       base,
		identifier: identifier,
		http:       httpClient,
		download:   &download,
		readStall:  StallTimeout,
	}, nil
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: StallTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.ResponseHeaderTimeout = StallTimeout
	return t
}

func (c *Client) Identifier() string { return c.identifier }

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	return u.String()
}

// Register announces the screen; the server creates or refreshes its record.
func (c *Client) Register(ctx context.Context, name, location string) (packets.ScreenResponse, error) {
	body, err := json.Marshal(map[string]string{
		"identifier": c.identifier,
		"name":       name,
		"location":   location,
	})
	if err != nil {
		return packets.ScreenResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "screen", "register"), bytes.NewReader(body))
	if err != nil {
		return packets.ScreenResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out packets.RegisterResponse
	if err := c.do(req, &out); err != nil {
		return packets.ScreenResponse{}, fmt.Errorf("register: %w", err)
	}
	return out.Screen, nil
}

// Heartbeat reports liveness. An unregistered screen gets a 404, see IsNotFound.
func (c *Client) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "screen", c.identifier, "heartbeat"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// Content fetches the screen's resolved playlist. A non-empty etag is sent as
// If-None-Match.
func (c *Client) Content(ctx context.Context, etag string) (ContentResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "screen", c.identifier, "content"), nil)
	if err != nil {
		return ContentResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ContentResult{}, fmt.Errorf("content: network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return ContentResult{ETag: etag, NotModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return ContentResult{}, fmt.Errorf("content: %w", statusError(resp))
	}

	var out packets.ScreenContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ContentResult{}, fmt.Errorf("content: failed to decode body: %w", err)
	}
	return ContentResult{Content: &out, ETag: resp.Header.Get("ETag")}, nil
}

// DownloadURL is where the bytes of a content item are served.
func (c *Client) DownloadURL(contentID int) string {
	return c.endpoint("api", "content", strconv.Itoa(contentID), "download")
}

// Download opens the media stream for a content item. The caller closes the
// body. The transfer is aborted only when no bytes arrive for readStall.
func (c *Client) Download(ctx context.Context, contentID int) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(contentID), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.download.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("download %d: network error: %w", contentID, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()
		return nil, fmt.Errorf("download %d: %w", contentID, statusError(resp))
	}
	return newStallBody(resp.Body, c.readStall, cancel), nil
}

// stallBody cancels its request when a read has waited longer than stall.
type stallBody struct {
	body   io.ReadCloser
	stall  time.Duration
	timer  *time.Timer
	cancel context.CancelFunc
}

func newStallBody(body io.ReadCloser, stall time.Duration, cancel context.CancelFunc) *stallBody {
	return &stallBody{body: body, stall: stall, timer: time.AfterFunc(stall, cancel), cancel: cancel}
}

func (b *stallBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	b.timer.Reset(b.stall)
	return n, err
}

func (b *stallBody) Close() error {
	b.timer.Stop()
	err := b.body.Close()
	b.cancel()
	return err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
