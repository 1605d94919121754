package clip

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Transcoder is the capability contract for the external transcoding engine.
// Implementations are exclusive, reusable workers: the orchestrator
// serializes access, writes all inputs before the single Concatenate call,
// and calls Reset before reusing the worker for a new request.
type Transcoder interface {
	// WriteInput stages one named input blob. Repeatable.
	WriteInput(name string, data []byte) error
	// Concatenate joins the named inputs in order into one output artifact.
	Concatenate(ctx context.Context, orderedNames []string) ([]byte, error)
	// Reset clears all staged inputs from any prior request.
	Reset() error
}

const transcodeTempExt = ".temp"

// FFmpegTranscoder concatenates transport-stream inputs into a single MP3
// using ffmpeg's concat demuxer. Not safe for concurrent use; callers must
// serialize access.
type FFmpegTranscoder struct {
	ffmpegPath string
	workDir    string
}

// NewFFmpegTranscoder returns a worker staging inputs under workDir and
// invoking the ffmpeg binary at ffmpegPath ("ffmpeg" resolves via PATH).
func NewFFmpegTranscoder(ffmpegPath, workDir string) (*FFmpegTranscoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcode work dir: %w", err)
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath, workDir: workDir}, nil
}

// WriteInput implements Transcoder. Input names are flattened to their base
// name so manifest-relative paths cannot escape the work dir.
func (t *FFmpegTranscoder) WriteInput(name string, data []byte) error {
	path := filepath.Join(t.workDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("stage transcode input %s: %w", name, err)
	}
	return nil
}

// Concatenate implements Transcoder. The output is written to a temporary
// file and renamed, so a failed run never leaves a partial artifact behind.
func (t *FFmpegTranscoder) Concatenate(ctx context.Context, orderedNames []string) ([]byte, error) {
	listPath := filepath.Join(t.workDir, "concat.txt")
	var list strings.Builder
	for _, name := range orderedNames {
		fmt.Fprintf(&list, "file '%s'\n", filepath.Base(name))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write concat list: %w", err)
	}

	outPath := filepath.Join(t.workDir, "clip.mp3")
	tempPath := outPath + transcodeTempExt

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-f", "mp3",
		"-y",
		tempPath,
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg concat: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if err := os.Rename(tempPath, outPath); err != nil {
		return nil, fmt.Errorf("finalize transcode output: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read transcode output: %w", err)
	}
	return data, nil
}

// Reset implements Transcoder by clearing every staged file.
func (t *FFmpegTranscoder) Reset() error {
	entries, err := os.ReadDir(t.workDir)
	if err != nil {
		return fmt.Errorf("reset transcode work dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(t.workDir, e.Name())); err != nil {
			return fmt.Errorf("reset transcode work dir: %w", err)
		}
	}
	return nil
}
