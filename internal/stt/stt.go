// Package stt turns recorded audio into transcript text for verse matching.
package stt

import (
	"context"
	"io"
)

// Transcriber converts an audio recording into plain transcript text.
type Transcriber interface {
	// Transcribe reads the complete audio payload from r and returns the
	// recognized text. filename carries the original name so the backend
	// can infer the container format.
	Transcribe(ctx context.Context, r io.Reader, filename string) (string, error)
}
