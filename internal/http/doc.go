// Package http provides the retrying transfer client used for every request
// to the trip-data host.
//
// The Client in this package handles:
//   - One shared connection pool with HTTP/2 preferred
//   - Retries of transient failures (network errors, 5xx, 408, 429)
//     with exponential backoff, three attempts in total
//   - Best-effort size probing via HEAD requests
//   - Streaming GET responses
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Probe a file size
//	size, ok := client.ContentLength(ctx, url)
//
//	// Stream a file
//	stream, err := client.GetStream(ctx, url)
//	if err != nil {
//	    return err // wraps http.ErrNetwork
//	}
//	defer stream.Body.Close()
//	if !stream.OK() {
//	    return fmt.Errorf("status %d", stream.StatusCode)
//	}
//
// # Progress Tracking
//
// The ProgressWriter type wraps any io.Writer for progress tracking and
// refuses further writes once its context is done:
//
//	pw := &http.ProgressWriter{
//	    Context:  ctx,
//	    Writer:   file,
//	    OnUpdate: func(n int64) { /* update counters */ },
//	}
package http
