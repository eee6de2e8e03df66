package commands_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"showrunner/contexts/production/series-production/domain/entities"
)

func seedSelectedEpisode(t *testing.T, fixture *productionFixture, episodeID string, withNarration bool) {
	t.Helper()
	base := fixture.store.Now()
	if err := fixture.store.CreateEpisode(context.Background(), entities.Episode{
		EpisodeID:     episodeID,
		SeriesID:      "series-1",
		EpisodeNumber: 1,
		Status:        entities.EpisodeStatusGenerating,
		CreatedAt:     base,
		UpdatedAt:     base,
	}); err != nil {
		t.Fatalf("create episode failed: %v", err)
	}
	if err := fixture.store.SetFinalVideo(context.Background(), episodeID, "https://media.test/raw/"+episodeID, base); err != nil {
		t.Fatalf("set final video failed: %v", err)
	}
	if withNarration {
		if err := fixture.store.SetNarrationAudio(context.Background(), episodeID, "https://media.test/audio/"+episodeID, base); err != nil {
			t.Fatalf("set narration failed: %v", err)
		}
	}
}

func TestFinalizeMuxesAndUploadsOnce(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)
	seedSelectedEpisode(t, fixture, "episode-1", true)

	if err := fixture.finalizer.Finalize(context.Background(), "episode-1"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if fixture.downloader.calls != 2 {
		t.Fatalf("expected video and audio downloads, got %d", fixture.downloader.calls)
	}
	if fixture.muxer.calls != 1 {
		t.Fatalf("expected one mux invocation, got %d", fixture.muxer.calls)
	}
	exists, err := fixture.objects.Exists(context.Background(), "episodes/episode-1/final")
	if err != nil || !exists {
		t.Fatalf("expected final object stored, exists=%v err=%v", exists, err)
	}
	episode, err := fixture.store.GetEpisode(context.Background(), "episode-1")
	if err != nil {
		t.Fatalf("get episode failed: %v", err)
	}
	if !strings.Contains(episode.FinalVideoURL, "episodes/episode-1/final") {
		t.Fatalf("expected final url at canonical key, got %q", episode.FinalVideoURL)
	}

	// Finalizing again is a no-op; the url already points at the final key.
	if err := fixture.finalizer.Finalize(context.Background(), "episode-1"); err != nil {
		t.Fatalf("second finalize failed: %v", err)
	}
	if fixture.muxer.calls != 1 || fixture.objects.puts != 1 {
		t.Fatalf("expected no repeat work, got mux=%d puts=%d", fixture.muxer.calls, fixture.objects.puts)
	}
}

func TestFinalizeAdoptsExistingOutput(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)
	seedSelectedEpisode(t, fixture, "episode-1", true)

	if _, err := fixture.objects.Put(context.Background(), "episodes/episode-1/final", "video/mp4", strings.NewReader("already muxed"), 12); err != nil {
		t.Fatalf("seed final object failed: %v", err)
	}

	if err := fixture.finalizer.Finalize(context.Background(), "episode-1"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if fixture.muxer.calls != 0 || fixture.downloader.calls != 0 {
		t.Fatalf("expected adoption without media work, got mux=%d downloads=%d", fixture.muxer.calls, fixture.downloader.calls)
	}
	episode, err := fixture.store.GetEpisode(context.Background(), "episode-1")
	if err != nil {
		t.Fatalf("get episode failed: %v", err)
	}
	if episode.FinalVideoURL != fixture.objects.URLFor("episodes/episode-1/final") {
		t.Fatalf("expected adopted final url, got %q", episode.FinalVideoURL)
	}
}

func TestFinalizeSkipsWithoutNarration(t *testing.T) {
	base := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	fixture := newProductionFixture(t, base)
	seedSelectedEpisode(t, fixture, "episode-1", false)

	if err := fixture.finalizer.Finalize(context.Background(), "episode-1"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if fixture.muxer.calls != 0 || fixture.objects.puts != 0 {
		t.Fatalf("expected silent skip, got mux=%d puts=%d", fixture.muxer.calls, fixture.objects.puts)
	}
	episode, err := fixture.store.GetEpisode(context.Background(), "episode-1")
	if err != nil {
		t.Fatalf("get episode failed: %v", err)
	}
	if !strings.Contains(episode.FinalVideoURL, "raw") {
		t.Fatalf("expected raw url untouched, got %q", episode.FinalVideoURL)
	}
}
