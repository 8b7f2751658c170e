package extractor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CmdRunner runs an external command and returns its stdout.
type CmdRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// YtDlp asks a local yt-dlp binary for the best direct media URL.
type YtDlp struct {
	binary   string
	lookPath func(string) (string, error)
	run      CmdRunner
}

func NewYtDlp(binary string) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{
		binary:   binary,
		lookPath: exec.LookPath,
		run:      execRunner,
	}
}

func (y *YtDlp) Name() string { return "ytdlp" }

func (y *YtDlp) Resolve(ctx context.Context, link string) (string, error) {
	path, err := y.lookPath(y.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found: %v", ErrUnavailable, y.binary, err)
	}

	out, err := y.run(ctx, path, "-f", "best", "--get-url", "--no-warnings", link)
	if err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	// Formats with separate streams print one URL per line; the first is the video.
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", ErrNoMediaURL
}
