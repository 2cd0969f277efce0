package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"favsync/internal/config"
	"favsync/internal/services"
)

// Runner converts one source file into one destination file.
type Runner interface {
	Transcode(ctx context.Context, sourcePath, destPath string) error
}

// FFmpeg invokes the external ffmpeg binary with a fixed parameter set.
type FFmpeg struct {
	Binary     string
	Encoder    string
	Quality    int
	SampleRate int
	Channels   int
}

// NewFFmpeg builds a runner from the configured codec parameters.
func NewFFmpeg(cfg *config.Config) *FFmpeg {
	return &FFmpeg{
		Binary:     cfg.FFmpegBinary(),
		Encoder:    cfg.TargetEncoder(),
		Quality:    cfg.Sync.Quality,
		SampleRate: cfg.Sync.SampleRate,
		Channels:   cfg.Sync.Channels,
	}
}

// Transcode runs one conversion. A non-zero exit wraps the tool's combined
// diagnostic output so the caller can log it.
func (f *FFmpeg) Transcode(ctx context.Context, sourcePath, destPath string) error {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-nostdin",
		"-v", "error",
		"-i", sourcePath,
		"-codec:a", f.Encoder,
		"-q:a", strconv.Itoa(f.Quality),
		"-ar", strconv.Itoa(f.SampleRate),
		"-ac", strconv.Itoa(f.Channels),
		destPath,
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return services.Wrap(
			services.ErrExternalTool,
			"transcode",
			"ffmpeg",
			fmt.Sprintf("convert %q: %s", sourcePath, detail),
			err,
		)
	}
	return nil
}
