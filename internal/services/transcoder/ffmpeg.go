package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultBitrate = "192k"
	DefaultTimeout = 2 * time.Minute

	// stderrTail is how much ffmpeg output is kept for error messages.
	stderrTail = 512
)

type Kind string

const (
	KindEngineMissing Kind = "engine_missing"
	KindDecodeError   Kind = "decode_error"
)

// TranscodeError describes why audio extraction failed.
type TranscodeError struct {
	Kind   Kind
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Kind == KindEngineMissing {
		return fmt.Sprintf("ffmpeg not found: %v", e.Err)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg failed: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// CmdRunner runs a command, returning its combined stderr on failure.
type CmdRunner func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// FFmpeg extracts the audio track of a video into an MP3 file.
type FFmpeg struct {
	binary   string
	timeout  time.Duration
	lookPath func(string) (string, error)
	run      CmdRunner
}

func NewFFmpeg(binary string, timeout time.Duration) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FFmpeg{
		binary:   binary,
		timeout:  timeout,
		lookPath: exec.LookPath,
		run:      execRunner,
	}
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := f.lookPath(f.binary)
	return err == nil
}

func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath, bitrate string) error {
	path, err := f.lookPath(f.binary)
	if err != nil {
		return &TranscodeError{Kind: KindEngineMissing, Err: err}
	}
	if bitrate == "" {
		bitrate = DefaultBitrate
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	stderr, err := f.run(ctx, path,
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", bitrate,
		outputPath,
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &TranscodeError{Kind: KindEngineMissing, Err: err}
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return &TranscodeError{Kind: KindDecodeError, Stderr: tail(stderr), Err: err}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return &TranscodeError{Kind: KindDecodeError, Stderr: tail(stderr), Err: fmt.Errorf("no output: %w", err)}
	}
	if info.Size() == 0 {
		return &TranscodeError{Kind: KindDecodeError, Stderr: tail(stderr), Err: errors.New("empty output")}
	}
	return nil
}

func tail(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) > stderrTail {
		s = s[len(s)-stderrTail:]
	}
	return s
}
