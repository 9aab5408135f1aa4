// Package download provides the orchestration logic for mirroring monthly
// trip-record files.
//
// # Manager
//
// The Manager coordinates the entire run:
//
//  1. Expand the YYYY-MM range into months
//  2. Plan one task (URL + file name) per month
//  3. Create the output directory
//  4. Probe every file's size with HEAD requests
//  5. Download files concurrently under a permit limit
//  6. Report a Summary of skipped, completed, failed and cancelled tasks
//
// # Basic Usage
//
//	manager := download.NewManager(download.Options{
//	    Type:        "yellow",
//	    Start:       "2023-01",
//	    End:         "2023-12",
//	    OutputDir:   "./data",
//	    Concurrency: 5,
//	}, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := manager.Run(ctx)
//	if err != nil {
//	    log.Fatal(err) // run-level: bad options, dates or output directory
//	}
//	fmt.Println(summary)
//
// # Concurrency
//
// Every task gets its own goroutine, but only Concurrency of them transfer
// at once. Size probes use a separate, wider limit (DefaultProbeLimit).
// Files that already exist are skipped without taking a permit.
//
// # Cancellation
//
// Cancelling the context passed to Run, or calling Manager.Cancel, stops the
// run. Workers observe it before starting, while waiting for a permit,
// during the request and on every chunk. A cancelled transfer's partial file
// is deleted and its bytes are withdrawn from the progress totals. Run still
// waits for every worker before returning.
//
// # Failures
//
// Task failures (HTTP status, exhausted retries, size mismatch, stalls) are
// collected in the Summary and never stop other tasks. Files that fail
// mid-transfer or fail the size check are removed.
//
// # Progress Tracking
//
// Progress is reported via a callback receiving ProgressEvent values, and
// can be polled with GetProgress and Tasks.
package download
