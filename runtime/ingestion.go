package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pithecene-io/utf8conv/iox"
	"github.com/pithecene-io/utf8conv/log"
	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/stream"
	"github.com/pithecene-io/utf8conv/types"
)

// IngestionError classifies ingestion errors for outcome determination.
type IngestionError struct {
	// Kind indicates which stage of ingestion failed.
	Kind IngestionErrorKind
	// Err is the underlying error.
	Err error
}

// IngestionErrorKind classifies ingestion errors.
type IngestionErrorKind int

const (
	// IngestionErrorRead indicates the input could not be read (io_error outcome).
	IngestionErrorRead IngestionErrorKind = iota
	// IngestionErrorPolicy indicates a policy or sink failure (io_error outcome).
	IngestionErrorPolicy
	// IngestionErrorInvalidInput indicates the policy rejected ill-formed input
	// (invalid_input outcome).
	IngestionErrorInvalidInput
	// IngestionErrorCanceled indicates context cancellation (canceled outcome).
	IngestionErrorCanceled
)

func (k IngestionErrorKind) String() string {
	switch k {
	case IngestionErrorRead:
		return "read"
	case IngestionErrorPolicy:
		return "policy"
	case IngestionErrorInvalidInput:
		return "invalid_input"
	case IngestionErrorCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

func (e *IngestionError) Error() string {
	return e.Err.Error()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

func ingestionKind(err error) (IngestionErrorKind, bool) {
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return ingErr.Kind, true
	}
	return 0, false
}

// IsReadError returns true if the error is an input read failure.
func IsReadError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorRead
}

// IsPolicyError returns true if the error is a policy or sink failure.
func IsPolicyError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorPolicy
}

// IsInvalidInputError returns true if the policy rejected ill-formed input.
func IsInvalidInputError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorInvalidInput
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	k, ok := ingestionKind(err)
	return ok && k == IngestionErrorCanceled
}

// IngestionEngine reads the input in chunks, decodes each chunk into code
// units and hands the result to the policy.
//
// Chunk boundaries follow the reads: one read produces at most one chunk.
// A read that only completes part of a sequence produces no chunk; its
// bytes are carried by the decoder. The final chunk always has Last set,
// even when it holds no units.
type IngestionEngine struct {
	input     io.Reader
	decoder   *stream.Decoder
	policy    policy.Policy
	logger    *log.Logger
	collector *metrics.Collector

	buf          []byte
	seq          int64
	bytesRead    int64
	pending      int64
	units        int64
	replacements int64
}

// NewIngestionEngine creates a new ingestion engine. chunkSize is the read
// buffer size in bytes.
func NewIngestionEngine(
	input io.Reader,
	decoder *stream.Decoder,
	pol policy.Policy,
	chunkSize int,
	logger *log.Logger,
	collector *metrics.Collector,
) *IngestionEngine {
	if chunkSize <= 0 {
		chunkSize = stream.DefaultBufferSize
	}
	return &IngestionEngine{
		input:     input,
		decoder:   decoder,
		policy:    pol,
		logger:    logger,
		collector: collector,
		buf:       make([]byte, chunkSize),
	}
}

// Run reads until end of input, an error, or cancellation.
//
// Returns:
//   - nil when the final chunk was ingested
//   - *IngestionError with Kind=IngestionErrorRead: the reader failed
//   - *IngestionError with Kind=IngestionErrorInvalidInput: the policy rejected a chunk
//   - *IngestionError with Kind=IngestionErrorPolicy: the policy or sink failed
//   - *IngestionError with Kind=IngestionErrorCanceled: ctx was canceled
func (e *IngestionEngine) Run(ctx context.Context) error {
	var units []uint32
	for {
		if err := ctx.Err(); err != nil {
			return &IngestionError{Kind: IngestionErrorCanceled, Err: err}
		}

		n, eof, err := iox.ReadChunk(e.input, e.buf)
		if err != nil {
			e.logger.Error("input read failed", map[string]any{
				"error":      err.Error(),
				"bytes_read": e.bytesRead,
			})
			return &IngestionError{
				Kind: IngestionErrorRead,
				Err:  fmt.Errorf("read input: %w", err),
			}
		}
		e.bytesRead += int64(n)
		e.pending += int64(n)
		e.collector.AddBytesRead(n)

		var repl int64
		units, repl, err = e.decoder.Decode(units[:0], e.buf[:n], eof)
		if err != nil {
			return &IngestionError{
				Kind: IngestionErrorRead,
				Err:  fmt.Errorf("decode input: %w", err),
			}
		}

		if len(units) == 0 && !eof {
			e.collector.IncNeedMore()
			continue
		}

		e.seq++
		chunk := &types.Chunk{
			Seq:          e.seq,
			Units:        append([]uint32(nil), units...),
			Replacements: repl,
			InputBytes:   e.pending,
			Last:         eof,
		}
		e.pending = 0
		e.units += int64(len(chunk.Units))
		e.replacements += repl
		e.collector.AddUnits(int64(len(chunk.Units)), repl)

		if repl > 0 {
			e.logger.Debug("replaced ill-formed input", map[string]any{
				"seq":          chunk.Seq,
				"replacements": repl,
			})
		}

		if err := e.policy.Ingest(ctx, chunk); err != nil {
			return e.classifyIngestError(ctx, chunk, err)
		}

		if eof {
			return nil
		}
	}
}

func (e *IngestionEngine) classifyIngestError(ctx context.Context, chunk *types.Chunk, err error) error {
	switch {
	case errors.Is(err, policy.ErrInvalidInput):
		e.logger.Warn("ill-formed input rejected", map[string]any{
			"seq":          chunk.Seq,
			"replacements": chunk.Replacements,
		})
		return &IngestionError{Kind: IngestionErrorInvalidInput, Err: err}
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return &IngestionError{Kind: IngestionErrorCanceled, Err: err}
	default:
		e.logger.Error("policy ingest failed", map[string]any{
			"seq":   chunk.Seq,
			"error": err.Error(),
		})
		return &IngestionError{
			Kind: IngestionErrorPolicy,
			Err:  fmt.Errorf("policy ingest: %w", err),
		}
	}
}

// CurrentSeq returns the Seq of the last chunk handed to the policy.
func (e *IngestionEngine) CurrentSeq() int64 { return e.seq }

// BytesRead returns the number of input bytes read.
func (e *IngestionEngine) BytesRead() int64 { return e.bytesRead }

// Units returns the number of code units decoded.
func (e *IngestionEngine) Units() int64 { return e.units }

// Replacements returns the number of ill-formed sequences replaced.
func (e *IngestionEngine) Replacements() int64 { return e.replacements }
