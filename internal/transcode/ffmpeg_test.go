package transcode_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"favsync/internal/services"
	"favsync/internal/testsupport"
	"favsync/internal/transcode"
)

func TestFFmpegTranscodeSuccess(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\n" +
		"for arg; do dest=\"$arg\"; done\n" +
		"printf audio > \"$dest\"\n"
	testsupport.WithStubbedBinaries(t, map[string]string{"ffmpeg": script})

	runner := &transcode.FFmpeg{Encoder: "libmp3lame", Quality: 2, SampleRate: 44100, Channels: 2}
	dest := filepath.Join(dir, "out.mp3")
	if err := runner.Transcode(context.Background(), filepath.Join(dir, "in.flac"), dest); err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestFFmpegTranscodeFailureIncludesDiagnostics(t *testing.T) {
	testsupport.WithStubbedBinaries(t, map[string]string{
		"ffmpeg": "#!/bin/sh\necho 'in.flac: Invalid data found' >&2\nexit 1\n",
	})

	runner := &transcode.FFmpeg{Encoder: "libmp3lame", Quality: 2, SampleRate: 44100, Channels: 2}
	err := runner.Transcode(context.Background(), "in.flac", filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("diagnostic output missing from %v", err)
	}
}
