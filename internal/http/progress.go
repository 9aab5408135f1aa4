package http

import (
	"context"
	"io"
)

// ProgressWriter wraps a writer to track download progress.
//
// Every Write first checks Context; once it is done the chunk is rejected
// with the context error, so a copy loop stops within one chunk of
// cancellation.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Context: ctx,
//	    Writer:  file,
//	    OnUpdate: func(n int64) {
//	        fmt.Printf("+%d bytes\n", n)
//	    },
//	}
//	io.Copy(pw, stream.Body)
type ProgressWriter struct {
	// Context aborts writes once done. Nil means never.
	Context context.Context

	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Written is the number of bytes written so far.
	Written int64

	// OnUpdate is called after each successful Write with the chunk length.
	OnUpdate func(n int64)
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	if pw.Context != nil {
		if err := pw.Context.Err(); err != nil {
			return 0, err
		}
	}

	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if n > 0 && pw.OnUpdate != nil {
		pw.OnUpdate(int64(n))
	}
	return n, err
}
