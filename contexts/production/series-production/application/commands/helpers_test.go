package commands_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"showrunner/contexts/production/series-production/adapters/memory"
	"showrunner/contexts/production/series-production/application/commands"
	"showrunner/contexts/production/series-production/domain/entities"
)

type fakeVideo struct {
	mu        sync.Mutex
	calls     int
	failUntil int // calls up to this count return an error
	err       error
}

func (f *fakeVideo) Generate(_ context.Context, prompt string, seed int64) (entities.GeneratedClip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failUntil {
		if f.err != nil {
			return entities.GeneratedClip{}, f.err
		}
		return entities.GeneratedClip{}, errors.New("render backend unavailable")
	}
	return entities.GeneratedClip{
		Video: []byte("video:" + prompt),
		Seed:  seed,
		Model: "HunyuanVideo",
	}, nil
}

type fakeNarration struct {
	err   error
	calls int
}

func (f *fakeNarration) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text), nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, _ string, body io.Reader, _ int64) (entities.StoredObject, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return entities.StoredObject{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.puts++
	return entities.StoredObject{Key: key, URL: f.URLFor(key)}, nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(newByteReader(data)), nil
}

func (f *fakeObjectStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjectStore) URLFor(key string) string {
	return "https://media.test/showrunner/" + key
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

type fakeDownloader struct {
	dir   string
	calls int
}

func (f *fakeDownloader) Download(_ context.Context, url string) (string, error) {
	f.calls++
	file, err := os.CreateTemp(f.dir, "dl-*.bin")
	if err != nil {
		return "", err
	}
	if _, err := file.WriteString("fetched:" + url); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return file.Name(), nil
}

type fakeMuxer struct {
	calls int
	err   error
}

func (f *fakeMuxer) Mux(_ context.Context, videoPath string, audioPath string, outputPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("muxed:"+videoPath+"+"+audioPath), 0o644)
}

type productionFixture struct {
	store      *memory.Store
	video      *fakeVideo
	narration  *fakeNarration
	objects    *fakeObjectStore
	downloader *fakeDownloader
	muxer      *fakeMuxer

	dispatcher commands.DispatcherUseCase
	worker     commands.WorkerUseCase
	ballots    commands.ClipBallotUseCase
	reconciler commands.ReconcilerUseCase
	finalizer  commands.FinalizerUseCase
}

func newProductionFixture(t *testing.T, now time.Time) *productionFixture {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(now)

	fixture := &productionFixture{
		store:      store,
		video:      &fakeVideo{},
		narration:  &fakeNarration{},
		objects:    newFakeObjectStore(),
		downloader: &fakeDownloader{dir: t.TempDir()},
		muxer:      &fakeMuxer{},
	}
	fixture.reconciler = commands.ReconcilerUseCase{
		Series:   store,
		Episodes: store,
		Jobs:     store,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	}
	fixture.finalizer = commands.FinalizerUseCase{
		Episodes:   store,
		Variants:   store,
		Store:      fixture.objects,
		Downloader: fixture.downloader,
		Muxer:      fixture.muxer,
		Clock:      store,
		ScratchDir: t.TempDir(),
	}
	fixture.dispatcher = commands.DispatcherUseCase{
		Series:   store,
		Episodes: store,
		Jobs:     store,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	}
	fixture.worker = commands.WorkerUseCase{
		Jobs:       store,
		Episodes:   store,
		Variants:   store,
		Series:     store,
		Video:      fixture.video,
		Narration:  fixture.narration,
		Store:      fixture.objects,
		Reconciler: fixture.reconciler,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
	}
	fixture.ballots = commands.ClipBallotUseCase{
		Episodes:   store,
		Variants:   store,
		ClipVotes:  store,
		Finalizer:  fixture.finalizer,
		Reconciler: fixture.reconciler,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
	}
	return fixture
}

func fivePlan() []commands.SeriesPlanInput {
	plan := make([]commands.SeriesPlanInput, 0, entities.EpisodesPerSeries)
	for number := 1; number <= entities.EpisodesPerSeries; number++ {
		plan = append(plan, commands.SeriesPlanInput{
			EpisodeNumber:   number,
			Beat:            fmt.Sprintf("beat %d", number),
			SceneDirection:  "wide coastal shot",
			CameraDirection: "slow dolly in",
			NarrationText:   fmt.Sprintf("narration %d", number),
		})
	}
	return plan
}

func (f *productionFixture) enqueue(t *testing.T, scriptID string) commands.EnqueueSeriesResult {
	t.Helper()
	result, err := f.dispatcher.EnqueueSeries(context.Background(), commands.EnqueueSeriesCommand{
		ScriptID: scriptID,
		GroupID:  "group-1",
		Title:    "Tidewatch",
		Plan:     fivePlan(),
	})
	if err != nil {
		t.Fatalf("enqueue series failed: %v", err)
	}
	return result
}

func (f *productionFixture) episodeByNumber(t *testing.T, seriesID string, number int) entities.Episode {
	t.Helper()
	episodes, err := f.store.ListEpisodesBySeries(context.Background(), seriesID)
	if err != nil {
		t.Fatalf("list episodes failed: %v", err)
	}
	for _, episode := range episodes {
		if episode.EpisodeNumber == number {
			return episode
		}
	}
	t.Fatalf("episode %d not found in series %s", number, seriesID)
	return entities.Episode{}
}

func (f *productionFixture) jobForEpisode(t *testing.T, seriesID string, episodeID string) entities.ProductionJob {
	t.Helper()
	jobs, err := f.store.ListJobsBySeries(context.Background(), seriesID)
	if err != nil {
		t.Fatalf("list jobs failed: %v", err)
	}
	for _, job := range jobs {
		if job.EpisodeID == episodeID {
			return job
		}
	}
	t.Fatalf("job for episode %s not found", episodeID)
	return entities.ProductionJob{}
}
