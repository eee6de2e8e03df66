package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Muxer combines a video file and a narration audio file with the ffmpeg
// binary: video stream copied, audio transcoded to AAC, output trimmed to the
// shorter input.
type Muxer struct {
	binary string
	logger *slog.Logger
}

func NewMuxer(binary string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Muxer{
		binary: binary,
		logger: logger,
	}
}

func (m *Muxer) Mux(ctx context.Context, videoPath string, audioPath string, outputPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-map", "0:v:0",
		"-map", "1:a:0",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, m.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if m.logger != nil {
			m.logger.Error("ffmpeg mux failed",
				"event", "ffmpeg_mux_failed",
				"module", "production/series-production",
				"layer", "adapter",
				"output", string(output),
				"error", err.Error(),
			)
		}
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}
