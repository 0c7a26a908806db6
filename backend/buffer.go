package backend

import (
	"bytes"
	"io"
	"sync"

	"github.com/mwantia/typedfs/data"
)

// CommitFunc stores the complete content collected by a BufferedWriter.
type CommitFunc func(content []byte) error

// BufferedWriter collects written bytes in memory and hands them to the
// commit function once closed. Backends that can only store whole values
// (KV stores, SQL rows, object stores) return it from WriteObject.
type BufferedWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	commit CommitFunc
	closed bool
}

func NewBufferedWriter(commit CommitFunc) *BufferedWriter {
	return &BufferedWriter{
		commit: commit,
	}
}

func (bw *BufferedWriter) Write(p []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.closed {
		return 0, data.ErrClosed
	}
	return bw.buf.Write(p)
}

// Close commits the collected content. Subsequent calls are no-ops.
func (bw *BufferedWriter) Close() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.closed {
		return nil
	}
	bw.closed = true

	return bw.commit(bw.buf.Bytes())
}

// NopReadCloser wraps content into a reader for ReadObject.
func NopReadCloser(content []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(content))
}
