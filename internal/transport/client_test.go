package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/livestatus/internal/config"
)

func TestClient_URL(t *testing.T) {
	api := NewAPI(config.Config{UpstreamOrigin: "http://bff:8080", APIBase: "/api", ProbeTimeout: time.Second})
	root := NewRoot(config.Config{UpstreamOrigin: "http://bff:8080", APIBase: "/api", ProbeTimeout: time.Second})
	abs := New("http://ignored", "https://edge.example.com/api/", time.Second)

	assert.Equal(t, "http://bff:8080/api/status", api.URL("/status"))
	assert.Equal(t, "http://bff:8080/actuator/health", root.URL("/actuator/health"))
	assert.Equal(t, "https://edge.example.com/api/status", abs.URL("/status"))
	assert.Equal(t, time.Second, api.HTTP.Timeout)
}

func TestGet_StringReceivesRawBody(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}))
	defer s.Close()

	got, err := Get[string](context.Background(), New(s.URL, "/api", 2*time.Second), "/status")
	require.NoError(t, err)
	assert.Equal(t, "OK", got)
}

func TestGet_AnyDecodesJSONOrFallsBackToText(t *testing.T) {
	body := `{"status":"ok","service":"profile-service"}`
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			_, _ = w.Write([]byte("all good"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer s.Close()
	c := New(s.URL, "", 2*time.Second)

	got, err := Get[any](context.Background(), c, "/json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok", "service": "profile-service"}, got)

	got, err = Get[any](context.Background(), c, "/text")
	require.NoError(t, err)
	assert.Equal(t, "all good", got)
}

func TestGet_StructAndEmptyBody(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	}))
	defer s.Close()
	c := New(s.URL, "", 2*time.Second)

	type health struct {
		Status string `json:"status"`
	}
	h, err := Get[health](context.Background(), c, "/actuator/health")
	require.NoError(t, err)
	assert.Equal(t, "UP", h.Status)

	h, err = Get[health](context.Background(), c, "/empty")
	require.NoError(t, err)
	assert.Empty(t, h.Status)
}

func TestGet_NonJSONBodyIsDecodeError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>login</html>"))
	}))
	defer s.Close()

	_, err := Get[map[string]string](context.Background(), New(s.URL, "", 2*time.Second), "/x")
	var de *DecodeError
	require.True(t, errors.As(err, &de), "want *DecodeError, got %T", err)
	assert.Equal(t, 200, de.Status)
	assert.Equal(t, "text/html", de.ContentType)
}

func TestGet_Non2xxIsResponseError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"DOWN"}`))
	}))
	defer s.Close()

	_, err := Get[any](context.Background(), New(s.URL, "/api", 2*time.Second), "/status")
	var re *ResponseError
	require.True(t, errors.As(err, &re), "want *ResponseError, got %T", err)
	assert.Equal(t, 503, re.Status)
	assert.Equal(t, "application/json", re.ContentType)
	assert.Equal(t, `{"status":"DOWN"}`, string(re.Body))
	assert.Equal(t, "Request failed with status code 503", re.Error())
}

func TestGet_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer s.Close()
	defer close(release)

	_, err := Get[any](context.Background(), New(s.URL, "", 50*time.Millisecond), "/actuator/health")
	var te *TransportError
	require.True(t, errors.As(err, &te), "want *TransportError, got %T", err)
	assert.True(t, te.Timeout)
	assert.Equal(t, "timeout of 50ms exceeded", te.Error())
}

func TestGet_ConnectionRefusedIsTransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Get[any](context.Background(), New("http://"+addr, "", time.Second), "/status")
	var te *TransportError
	require.True(t, errors.As(err, &te), "want *TransportError, got %T", err)
	assert.False(t, te.Timeout)
	assert.NotEmpty(t, te.Error())
}
