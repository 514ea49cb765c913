// internal/publish/writer_sink.go
package publish

import (
	"fmt"
	"io"
	"sync"

	"github.com/tamzrod/evm-logger/internal/decoder"
)

// WriterSink appends one wire record per line to an io.Writer. File
// creation and rotation belong to the caller; the sink only appends.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a log-append sink over w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Name() string { return "log" }

func (s *WriterSink) Publish(sample decoder.Sample) error {
	rec, err := EncodeSample(sample)
	if err != nil {
		return fmt.Errorf("log sink: encode: %w", err)
	}
	rec = append(rec, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(rec); err != nil {
		return fmt.Errorf("log sink: append: %w", err)
	}
	return nil
}

func (s *WriterSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
