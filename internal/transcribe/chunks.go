package transcribe

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/bilisub/internal/audio"
	"github.com/mgpai22/bilisub/internal/subtitle"
)

type chunkFunc func(ctx context.Context, chunk audio.ChunkInfo) ([]subtitle.Segment, error)

// transcribeChunk runs t on one chunk and moves the segments onto the
// timeline of the original audio.
func transcribeChunk(ctx context.Context, t Transcriber, chunk audio.ChunkInfo) ([]subtitle.Segment, error) {
	result, err := t.Transcribe(ctx, chunk.Path)
	if err != nil {
		return nil, err
	}
	return offsetSegments(result.Segments, chunk), nil
}

// offsetSegments shifts segments by the chunk start. Whisper sometimes
// reports times past the end of a chunk; those are clamped to the chunk
// so neighbouring chunks never overlap.
func offsetSegments(segments []subtitle.Segment, chunk audio.ChunkInfo) []subtitle.Segment {
	length := chunk.EndTime - chunk.StartTime
	adjusted := make([]subtitle.Segment, 0, len(segments))
	for _, seg := range segments {
		if length > 0 {
			if seg.StartTime >= length {
				continue
			}
			seg.EndTime = min(seg.EndTime, length)
		}
		seg.StartTime += chunk.StartTime
		seg.EndTime += chunk.StartTime
		adjusted = append(adjusted, seg)
	}
	return adjusted
}

// runChunks transcribes up to concurrency chunks at once and merges the
// segments in chunk order. The first failure cancels the rest.
func runChunks(
	ctx context.Context,
	chunks []audio.ChunkInfo,
	concurrency int,
	language string,
	fn chunkFunc,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	perChunk := make([][]subtitle.Segment, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			segments, err := fn(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d failed: %w", chunk.Index, err)
			}
			perChunk[i] = segments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transcription cancelled: %w", err)
	}

	var all []subtitle.Segment
	for _, segments := range perChunk {
		all = append(all, segments...)
	}
	return &Result{
		Segments: all,
		Language: language,
		Duration: chunks[len(chunks)-1].EndTime,
	}, nil
}
