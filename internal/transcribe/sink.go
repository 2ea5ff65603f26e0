package transcribe

import "github.com/koustreak/sqlsheet/internal/cell"

// Sink receives decoded cells at grid coordinates. Row 0 holds the header.
// Each coordinate is written at most once per transcription.
type Sink interface {
	Write(row, col uint32, v cell.Value) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(row, col uint32, v cell.Value) error

func (f SinkFunc) Write(row, col uint32, v cell.Value) error { return f(row, col, v) }
