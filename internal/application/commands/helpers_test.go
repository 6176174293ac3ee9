package commands

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sync"

	"toponav/internal/application"
	"toponav/internal/domain"
)

// scene encodes a synthetic view as a one-row descriptor set
func scene(id int) domain.Descriptors {
	return domain.Descriptors{{byte(id >> 8), byte(id)}}
}

func sceneOf(d domain.Descriptors) int {
	return int(d[0][0])<<8 | int(d[0][1])
}

func kfScene(index, id int) domain.KeyFrame {
	return domain.KeyFrame{Index: index, Keypoints: 1, Descriptors: scene(id)}
}

// sceneSeq builds a closed sequence whose i-th keyframe shows scenes[i]
func sceneSeq(scenes ...int) domain.KeyFrameSequence {
	frames := make([]domain.KeyFrame, len(scenes))
	for i, s := range scenes {
		frames[i] = kfScene(i, s)
	}
	return domain.MustKeyFrameSequence(frames...)
}

// sceneOracle scores 1 for identical scenes and 0 otherwise
type sceneOracle struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool // scenes whose comparison fails
}

func (o *sceneOracle) Similarity(a, b domain.Descriptors) (float64, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	if a == nil || b == nil {
		return 0, fmt.Errorf("%w: absent descriptors", application.ErrInvalidInput)
	}
	sa, sb := sceneOf(a), sceneOf(b)
	if o.fail[sa] || o.fail[sb] {
		return 0, fmt.Errorf("%w: scene %d", application.ErrInvalidInput, sa)
	}
	if sa == sb {
		return 1, nil
	}
	return 0, nil
}

// gradedOracle scores scenes by closeness, 1/(1+|a-b|)
type gradedOracle struct{}

func (gradedOracle) Similarity(a, b domain.Descriptors) (float64, error) {
	if a == nil || b == nil {
		return 0, application.ErrInvalidInput
	}
	return 1 / (1 + math.Abs(float64(sceneOf(a)-sceneOf(b)))), nil
}

// sceneImage is a raw frame showing a synthetic scene
type sceneImage struct {
	image.Image
	scene  int
	blurry bool
	broken bool
}

type sceneDetector struct{}

func (sceneDetector) Detect(img image.Image) (int, domain.Descriptors, error) {
	si := img.(sceneImage)
	if si.broken {
		return 0, nil, errors.New("detector failed")
	}
	return 1, scene(si.scene), nil
}

type flagBlur struct{}

func (flagBlur) IsBlurry(img image.Image) bool { return img.(sceneImage).blurry }

// sliceSource replays frames. When gate is set, each frame waits for a
// token so tests can interleave producer and consumer.
type sliceSource struct {
	frames []domain.Frame
	pos    int
	err    error // returned instead of io.EOF at the end
	gate   chan struct{}
	closed bool
}

func (s *sliceSource) Next(ctx context.Context) (domain.Frame, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return domain.Frame{}, ctx.Err()
		}
	}
	if s.pos >= len(s.frames) {
		if s.err != nil {
			return domain.Frame{}, s.err
		}
		return domain.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// framesOf returns one raw frame per scene, indexed from 0
func framesOf(scenes ...int) []domain.Frame {
	frames := make([]domain.Frame, len(scenes))
	for i, s := range scenes {
		frames[i] = domain.Frame{Index: i, Image: sceneImage{scene: s}}
	}
	return frames
}

// repeat returns each scene n times in a row
func repeat(n int, scenes ...int) []int {
	var out []int
	for _, s := range scenes {
		for range n {
			out = append(out, s)
		}
	}
	return out
}

type memorySink struct {
	mu     sync.Mutex
	frames []domain.KeyFrame
}

func (s *memorySink) SaveKeyFrame(_ context.Context, kf domain.KeyFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, kf)
	return nil
}

// recorder captures progress events
type recorder struct {
	mu       sync.Mutex
	accepted []domain.KeyFrame
	steps    []domain.MatchHypothesis
	hits     []bool
	resolved []domain.Resolution
}

func (r *recorder) KeyFrameAccepted(kf domain.KeyFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted = append(r.accepted, kf)
}

func (r *recorder) HypothesisStepped(h domain.MatchHypothesis, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, h)
	r.hits = append(r.hits, hit)
}

func (r *recorder) EdgeResolved(res domain.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, res)
}

// memoryStore keeps a saved graph in memory
type memoryStore struct {
	graph *domain.Graph
	err   error
}

func (s *memoryStore) LoadGraph(context.Context) (*domain.Graph, error) {
	if s.graph == nil {
		return nil, &domain.LoadError{Source: "memory", Err: errors.New("empty")}
	}
	return s.graph, nil
}

func (s *memoryStore) SaveGraph(_ context.Context, g *domain.Graph) error {
	if s.err != nil {
		return s.err
	}
	s.graph = g
	return nil
}

func (s *memoryStore) Close() error { return nil }
