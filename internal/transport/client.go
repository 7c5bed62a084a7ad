package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/livestatus/internal/config"
)

// maxBody bounds how much of a response is buffered; previews need far less.
const maxBody = 1 << 20

// Client is an HTTP sender bound to one base path and a fixed timeout.
type Client struct {
	// Base is the prefix joined in front of every path ("/api" or "").
	// It may also be an absolute URL, in which case Origin is ignored.
	Base   string
	Origin string
	HTTP   *http.Client
}

func New(origin, base string, timeout time.Duration) *Client {
	return &Client{
		Base:   strings.TrimRight(base, "/"),
		Origin: strings.TrimRight(origin, "/"),
		HTTP:   &http.Client{Timeout: timeout},
	}
}

// NewAPI returns the client scoped to the API namespace.
func NewAPI(cfg config.Config) *Client {
	return New(cfg.UpstreamOrigin, cfg.APIBase, cfg.ProbeTimeout)
}

// NewRoot returns the unprefixed client, used for endpoints living outside the API
// namespace such as /actuator/health.
func NewRoot(cfg config.Config) *Client {
	return New(cfg.UpstreamOrigin, "", cfg.ProbeTimeout)
}

// URL resolves path to the absolute request URL.
func (c *Client) URL(path string) string {
	if strings.Contains(c.Base, "://") {
		return c.Base + path
	}
	return c.Origin + c.Base + path
}

// Get issues GET path and decodes a 2xx body into T.
//
// A string T receives the raw body. An any T receives decoded JSON when the body is
// JSON, otherwise the raw text. Any other T is JSON-decoded and a malformed body fails
// with *DecodeError. Failures are *TransportError, *ResponseError or *DecodeError;
// callers normalize them with Normalize.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return out, &UnexpectedError{Value: err}
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return out, c.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return out, c.transportError(err)
	}
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &ResponseError{Status: resp.StatusCode, ContentType: contentType, Body: body}
	}

	switch p := any(&out).(type) {
	case *string:
		*p = string(body)
	case *any:
		if json.Valid(body) {
			_ = json.Unmarshal(body, p)
		} else {
			*p = string(body)
		}
	default:
		if len(bytes.TrimSpace(body)) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return out, &DecodeError{Status: resp.StatusCode, ContentType: contentType, Body: body, Err: err}
		}
	}
	return out, nil
}

func (c *Client) transportError(err error) *TransportError {
	te := &TransportError{Err: err}
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		te.Timeout = true
		te.Msg = "timeout exceeded"
		if c.HTTP.Timeout > 0 {
			te.Msg = fmt.Sprintf("timeout of %dms exceeded", c.HTTP.Timeout.Milliseconds())
		}
	}
	return te
}
