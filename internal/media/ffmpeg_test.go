package media

import (
	"strings"
	"testing"
)

func TestNewFFmpegDefaults(t *testing.T) {
	f := NewFFmpeg("", 0, "", 0)
	if f.Binary != "ffmpeg" || f.Preset != "medium" || f.CRF != 23 {
		t.Errorf("defaults = %+v", f)
	}
}

func TestClipArgs(t *testing.T) {
	f := NewFFmpeg("ffmpeg", 2, "fast", 28)
	args := strings.Join(f.clipArgs("in.mp4", 1.5, 12.25, "out.mp4"), " ")

	for _, want := range []string{
		"-ss 1.500 -i in.mp4",
		"-t 10.750",
		"-threads 2",
		"-preset fast",
		"-crf 28",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if !strings.HasSuffix(args, " out.mp4") {
		t.Errorf("args %q should end with the destination", args)
	}
}

func TestAudioArgs(t *testing.T) {
	args := strings.Join(audioArgs("in.mp4", "out.wav"), " ")
	if !strings.Contains(args, "-vn -acodec pcm_s16le -ar 16000 -ac 1 out.wav") {
		t.Errorf("args = %q", args)
	}
}

func TestCutRejectsEmptyRange(t *testing.T) {
	f := NewFFmpeg("ffmpeg-does-not-exist", 0, "", 0)
	if err := f.Cut(t.Context(), "in.mp4", 5, 5, "out.mp4"); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestRunReportsMissingBinary(t *testing.T) {
	f := NewFFmpeg("/nonexistent/ffmpeg", 0, "", 0)
	if err := f.ExtractAudio(t.Context(), "in.mp4", "out.wav"); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestLastLines(t *testing.T) {
	out := []byte("a\nb\nc\nd\n")
	if got := lastLines(out, 2); got != "c\nd" {
		t.Errorf("lastLines = %q, want %q", got, "c\nd")
	}
	if got := lastLines(out, 10); got != "a\nb\nc\nd" {
		t.Errorf("lastLines = %q", got)
	}
}
