package unit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"showrunner/contexts/production/series-production/domain/entities"
	"showrunner/internal/shared/events"
)

// capturingPublisher records everything the outbox relays publish.
type capturingPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	Topic    string
	Envelope events.Envelope
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{Topic: topic, Envelope: event})
	return nil
}

func (p *capturingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.published))
	for _, event := range p.published {
		topics = append(topics, event.Topic)
	}
	return topics
}

type capturingSubscriber struct {
	handler func(context.Context, events.Envelope) error
}

func (s *capturingSubscriber) Subscribe(_ context.Context, _ string, _ string, handler func(context.Context, events.Envelope) error) error {
	s.handler = handler
	return nil
}

type stubVideo struct{}

func (stubVideo) Generate(_ context.Context, prompt string, seed int64) (entities.GeneratedClip, error) {
	return entities.GeneratedClip{Video: []byte("video:" + prompt), Seed: seed, Model: "HunyuanVideo"}, nil
}

type stubNarration struct{}

func (stubNarration) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte("audio:" + text), nil
}

type stubObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubObjectStore() *stubObjectStore {
	return &stubObjectStore{objects: make(map[string][]byte)}
}

func (s *stubObjectStore) Put(_ context.Context, key string, _ string, body io.Reader, _ int64) (entities.StoredObject, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return entities.StoredObject{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return entities.StoredObject{Key: key, URL: s.URLFor(key)}, nil
}

func (s *stubObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *stubObjectStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *stubObjectStore) URLFor(key string) string {
	return "https://media.test/showrunner/" + key
}

type stubDownloader struct {
	dir string
}

func (d stubDownloader) Download(_ context.Context, url string) (string, error) {
	file, err := os.CreateTemp(d.dir, "dl-*.bin")
	if err != nil {
		return "", err
	}
	if _, err := file.WriteString("fetched:" + url); err != nil {
		file.Close()
		return "", err
	}
	return file.Name(), file.Close()
}

type stubMuxer struct{}

func (stubMuxer) Mux(_ context.Context, videoPath string, audioPath string, outputPath string) error {
	return os.WriteFile(outputPath, []byte("muxed:"+videoPath+"+"+audioPath), 0o644)
}
