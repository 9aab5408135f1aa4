package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() Options {
	opts := DefaultOptions()
	opts.RetryBackoff = time.Millisecond
	opts.RetryMaxBackoff = 5 * time.Millisecond
	return opts
}

func TestContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", "1024")
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	size, ok := client.ContentLength(context.Background(), server.URL)

	require.True(t, ok)
	assert.Equal(t, int64(1024), size)
}

func TestContentLength_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	size, ok := client.ContentLength(context.Background(), server.URL)

	assert.False(t, ok)
	assert.Zero(t, size)
}

func TestContentLength_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(fastOptions())
	_, ok := client.ContentLength(context.Background(), url)

	assert.False(t, ok)
}

func TestGetStream(t *testing.T) {
	data := []byte("Hello, World! This is test data.")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	stream, err := client.GetStream(context.Background(), server.URL)
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.True(t, stream.OK())
	assert.Equal(t, int64(len(data)), stream.ContentLength)

	got, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestGetStream_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	stream, err := client.GetStream(context.Background(), server.URL)
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.True(t, stream.OK())
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetStream_ServerErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	stream, err := client.GetStream(context.Background(), server.URL)
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.False(t, stream.OK())
	assert.Equal(t, http.StatusBadGateway, stream.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "attempts are capped at three")
}

func TestGetStream_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	stream, err := client.GetStream(context.Background(), server.URL)
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.Equal(t, http.StatusNotFound, stream.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetStream_NetworkErrorExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(fastOptions())
	_, err := client.GetStream(context.Background(), url)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestGetStream_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.RetryBackoff = time.Minute
	opts.RetryMaxBackoff = time.Minute
	client := NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.GetStream(ctx, server.URL)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestProgressWriter(t *testing.T) {
	var buf bytes.Buffer
	var reported int64
	pw := &ProgressWriter{
		Context:  context.Background(),
		Writer:   &buf,
		OnUpdate: func(n int64) { reported += n },
	}

	_, err := io.Copy(pw, bytes.NewReader(make([]byte, 100_000)))
	require.NoError(t, err)

	assert.Equal(t, int64(100_000), pw.Written)
	assert.Equal(t, int64(100_000), reported)
	assert.Equal(t, 100_000, buf.Len())
}

func TestProgressWriter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	pw := &ProgressWriter{Context: ctx, Writer: &buf}

	n, err := pw.Write([]byte("data"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
