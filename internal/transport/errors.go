package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"
)

// PreviewLimit is the maximum length, in characters, of HTTPError.BodyPreview.
const PreviewLimit = 200

// TransportError means no response was received: dial failure, reset, timeout.
type TransportError struct {
	Err     error
	Timeout bool
	Msg     string // overrides Err's text when set
}

func (e *TransportError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	var ue *url.Error
	if errors.As(e.Err, &ue) {
		return ue.Err.Error()
	}
	if e.Err == nil {
		return "network error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError is a received non-2xx response.
type ResponseError struct {
	Status      int
	ContentType string
	Body        []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.Status)
}

// DecodeError is a 2xx response whose body does not fit the requested shape.
type DecodeError struct {
	Status      int
	ContentType string
	Body        []byte
	Err         error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// UnexpectedError carries anything that is not one of the above, such as a value
// recovered from a panic.
type UnexpectedError struct {
	Value any
}

func (e *UnexpectedError) Error() string {
	if err, ok := e.Value.(error); ok && err.Error() != "" {
		return err.Error()
	}
	return "Unknown error"
}

// HTTPError is the one failure shape presentation code sees. Zero Status and empty
// ContentType/BodyPreview mean "absent".
type HTTPError struct {
	Message     string `json:"message"`
	URL         string `json:"url"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	BodyPreview string `json:"bodyPreview,omitempty"`
}

func (e *HTTPError) Error() string { return e.Message }

// Normalize turns any failure into an *HTTPError for url. It never returns nil.
func Normalize(err error, url string) *HTTPError {
	var (
		he *HTTPError
		re *ResponseError
		de *DecodeError
		te *TransportError
	)
	switch {
	case err == nil:
		return &HTTPError{Message: "Unknown error", URL: url}
	case errors.As(err, &he):
		cp := *he
		if cp.URL == "" {
			cp.URL = url
		}
		return &cp
	case errors.As(err, &re):
		return &HTTPError{
			Message:     re.Error(),
			URL:         url,
			Status:      re.Status,
			ContentType: re.ContentType,
			BodyPreview: PreviewBody(re.Body),
		}
	case errors.As(err, &de):
		return &HTTPError{
			Message:     de.Error(),
			URL:         url,
			Status:      de.Status,
			ContentType: de.ContentType,
			BodyPreview: PreviewBody(de.Body),
		}
	case errors.As(err, &te):
		return &HTTPError{Message: te.Error(), URL: url}
	}
	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	return &HTTPError{Message: msg, URL: url}
}

// PreviewBody renders at most PreviewLimit characters of a body. Text is sliced as is;
// JSON bytes are compacted first and other values are JSON-encoded. A value that
// cannot be encoded has no preview.
func PreviewBody(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case string:
		return truncate(b, PreviewLimit)
	case []byte:
		if json.Valid(b) {
			var buf bytes.Buffer
			if err := json.Compact(&buf, b); err == nil {
				return truncate(buf.String(), PreviewLimit)
			}
		}
		return truncate(string(b), PreviewLimit)
	}
	out, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return truncate(string(out), PreviewLimit)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
