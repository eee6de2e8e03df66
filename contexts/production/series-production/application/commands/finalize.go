package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	application "showrunner/contexts/production/series-production/application"
	"showrunner/contexts/production/series-production/ports"
)

// FinalizerUseCase muxes an episode's selected clip with its narration audio
// and publishes the result at the canonical final key. Idempotent by key: an
// episode whose final URL already points at the canonical key is skipped.
type FinalizerUseCase struct {
	Episodes   ports.EpisodeRepository
	Variants   ports.VariantRepository
	Store      ports.ObjectStore
	Downloader ports.MediaDownloader
	Muxer      ports.MediaMuxer
	Clock      ports.Clock
	ScratchDir string
	Logger     *slog.Logger
}

func finalKey(episodeID string) string {
	return fmt.Sprintf("episodes/%s/final", episodeID)
}

// Finalize combines the episode's selected video and narration audio. It
// skips silently when there is nothing to do: no selected media, no
// narration, or the final already produced.
func (uc FinalizerUseCase) Finalize(ctx context.Context, episodeID string) error {
	logger := application.ResolveLogger(uc.Logger)

	episode, err := uc.Episodes.GetEpisode(ctx, episodeID)
	if err != nil {
		return err
	}
	if episode.FinalVideoURL == "" || episode.NarrationAudioURL == "" {
		return nil
	}
	key := finalKey(episodeID)
	if strings.Contains(episode.FinalVideoURL, key) {
		return nil
	}
	if exists, err := uc.Store.Exists(ctx, key); err == nil && exists {
		// A concurrent finalizer already produced the output; adopt it.
		finalURL := uc.Store.URLFor(key)
		if err := uc.Episodes.ReplaceFinalVideo(ctx, episodeID, finalURL, uc.now()); err != nil {
			return err
		}
		logger.Info("episode finalization adopted existing output",
			"event", "episode_finalize_adopted",
			"module", "production/series-production",
			"layer", "application",
			"episode_id", episodeID,
			"final_url", finalURL,
		)
		return nil
	}

	videoPath, err := uc.Downloader.Download(ctx, episode.FinalVideoURL)
	if err != nil {
		return fmt.Errorf("download episode video: %w", err)
	}
	defer os.Remove(videoPath)
	audioPath, err := uc.Downloader.Download(ctx, episode.NarrationAudioURL)
	if err != nil {
		return fmt.Errorf("download narration audio: %w", err)
	}
	defer os.Remove(audioPath)

	outputPath := filepath.Join(uc.scratchDir(), fmt.Sprintf("final-%s.mp4", episodeID))
	defer os.Remove(outputPath)
	if err := uc.Muxer.Mux(ctx, videoPath, audioPath, outputPath); err != nil {
		return fmt.Errorf("mux episode media: %w", err)
	}

	output, err := os.Open(outputPath)
	if err != nil {
		return err
	}
	defer output.Close()
	info, err := output.Stat()
	if err != nil {
		return err
	}
	stored, err := uc.Store.Put(ctx, key, "video/mp4", output, info.Size())
	if err != nil {
		return fmt.Errorf("upload final episode: %w", err)
	}
	if err := uc.Episodes.ReplaceFinalVideo(ctx, episodeID, stored.URL, uc.now()); err != nil {
		return err
	}

	logger.Info("episode finalized",
		"event", "episode_finalized",
		"module", "production/series-production",
		"layer", "application",
		"episode_id", episodeID,
		"final_key", key,
	)
	return nil
}

func (uc FinalizerUseCase) scratchDir() string {
	if uc.ScratchDir != "" {
		return uc.ScratchDir
	}
	return os.TempDir()
}

func (uc FinalizerUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
