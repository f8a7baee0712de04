package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// FFmpeg runs the ffmpeg binary to cut clips and extract audio.
type FFmpeg struct {
	Binary  string
	Threads int
	Preset  string
	CRF     int
}

// NewFFmpeg returns an FFmpeg with defaults filled in.
func NewFFmpeg(binary string, threads int, preset string, crf int) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if preset == "" {
		preset = "medium"
	}
	if crf <= 0 {
		crf = 23
	}
	return &FFmpeg{Binary: binary, Threads: threads, Preset: preset, CRF: crf}
}

// Cut re-encodes [start, end) of src into dst.
func (f *FFmpeg) Cut(ctx context.Context, src string, start, end float64, dst string) error {
	if end <= start {
		return fmt.Errorf("ffmpeg cut: empty range [%.3f, %.3f]", start, end)
	}
	return f.run(ctx, f.clipArgs(src, start, end, dst))
}

// ExtractAudio writes the audio track of src to dst as 16 kHz mono PCM WAV.
func (f *FFmpeg) ExtractAudio(ctx context.Context, src, dst string) error {
	return f.run(ctx, audioArgs(src, dst))
}

func (f *FFmpeg) clipArgs(src string, start, end float64, dst string) []string {
	return []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", src,
		"-t", fmt.Sprintf("%.3f", end-start),
		"-threads", strconv.Itoa(f.Threads),
		"-c:v", "libx264",
		"-preset", f.Preset,
		"-crf", strconv.Itoa(f.CRF),
		"-c:a", "aac",
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		dst,
	}
}

func audioArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		dst,
	}
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLines(stderr.Bytes(), 5))
	}
	return nil
}

// lastLines returns at most n trailing lines of out.
func lastLines(out []byte, n int) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte("\n")))
}
