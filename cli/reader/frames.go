package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/pithecene-io/utf8conv/ipc"
	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/types"
)

// ReadFrames decodes a frame stream and summarizes it. Frames after the
// run_result frame are counted but not interpreted. Decode errors are
// counted on collector (which may be nil) and returned.
func ReadFrames(r io.Reader, collector *metrics.Collector) (*InspectFramesResponse, error) {
	dec := ipc.NewFrameDecoder(r)
	resp := &InspectFramesResponse{}

	for {
		payload, err := dec.ReadFrame()
		if errors.Is(err, io.EOF) {
			return resp, nil
		}
		if err != nil {
			collector.IncFrameDecodeErrors()
			return resp, fmt.Errorf("frame %d: %w", resp.Frames+1, err)
		}
		resp.Frames++

		if resp.RunResult != nil {
			continue
		}

		frame, err := ipc.DecodeFrame(payload)
		if err != nil {
			collector.IncFrameDecodeErrors()
			return resp, fmt.Errorf("frame %d: %w", resp.Frames, err)
		}

		switch f := frame.(type) {
		case *types.ChunkFrame:
			resp.addChunk(&f.Chunk)
		case *types.RunResultFrame:
			resp.RunResult = &RunResultSummary{
				RunID:        f.RunID,
				Status:       string(f.Outcome.Status),
				Message:      f.Outcome.Message,
				Chunks:       f.Chunks,
				Units:        f.Units,
				Replacements: f.Replacements,
				Version:      f.Version,
			}
		}
	}
}

func (s *InspectFramesResponse) addChunk(c *types.Chunk) {
	if s.Chunks == 0 {
		s.FirstSeq = c.Seq
	} else if c.Seq != s.LastSeq+1 {
		s.SeqErrors++
	}
	s.LastSeq = c.Seq
	s.Chunks++
	s.Units += int64(len(c.Units))
	s.Replacements += c.Replacements
	if c.Invalid() {
		s.InvalidChunks++
	}
	if c.Last {
		s.Complete = true
	}
}
