package commands

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"toponav/internal/application"
	"toponav/internal/domain"
)

func newTestExtract(t *testing.T, src *sliceSource, opts ExtractorOptions) *ExtractCommand {
	t.Helper()
	return NewExtractCommand(src, sceneDetector{}, &sceneOracle{}, flagBlur{}, opts, zaptest.NewLogger(t))
}

func indices(seq domain.KeyFrameSequence) []int {
	var out []int
	for _, kf := range seq.Frames() {
		out = append(out, kf.Index)
	}
	return out
}

func TestExtractorOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ExtractorOptions)
		wantErr error
		errMsg  string
	}{
		{name: "defaults", mutate: func(*ExtractorOptions) {}},
		{name: "zero stride", mutate: func(o *ExtractorOptions) { o.Stride = 0 }, errMsg: "frame stride must be positive"},
		{name: "threshold above one", mutate: func(o *ExtractorOptions) { o.DistinctThreshold = 1.5 }, wantErr: application.ErrRange},
		{name: "zero gap", mutate: func(o *ExtractorOptions) { o.MinimumGap = 0 }, errMsg: "minimum gap must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultExtractorOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtract_FirstFrameAndStride(t *testing.T) {
	src := &sliceSource{frames: framesOf(repeat(100, 7)...)}
	cmd := newTestExtract(t, src, DefaultExtractorOptions())

	seq, stats, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0}, indices(seq))
	assert.Equal(t, 100, stats.Read)
	// 0, 15, 30, 45, 60, 75, 90
	assert.Equal(t, 7, stats.Evaluated)
	assert.Equal(t, 1, stats.Accepted)
}

func TestExtract_AcceptsDistinctOnStride(t *testing.T) {
	// scene changes every 10 frames; only multiples of 5 are evaluated
	scenes := repeat(10, 1, 2, 3, 3, 4)
	opts := DefaultExtractorOptions()
	opts.Stride = 5
	cmd := newTestExtract(t, &sliceSource{frames: framesOf(scenes...)}, opts)

	seq, _, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 40}, indices(seq))
}

func TestExtract_BlurRetriesNextFrame(t *testing.T) {
	frames := framesOf(repeat(30, 1, 2)...)
	// frame 30 is the first stride frame of scene 2, but blurry
	img := frames[30].Image.(sceneImage)
	img.blurry = true
	frames[30].Image = img

	opts := DefaultExtractorOptions()
	cmd := newTestExtract(t, &sliceSource{frames: frames}, opts)

	seq, stats, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 31}, indices(seq))
	assert.Equal(t, 1, stats.Blurry)
}

func TestExtract_BlurIgnoredWhenDisabled(t *testing.T) {
	frames := framesOf(repeat(30, 1, 2)...)
	img := frames[30].Image.(sceneImage)
	img.blurry = true
	frames[30].Image = img

	opts := DefaultExtractorOptions()
	opts.CheckBlur = false
	cmd := newTestExtract(t, &sliceSource{frames: frames}, opts)

	seq, stats, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 30}, indices(seq))
	assert.Zero(t, stats.Blurry)
}

func TestExtract_EnsureMinimum(t *testing.T) {
	opts := DefaultExtractorOptions()
	opts.EnsureMinimum = true
	cmd := newTestExtract(t, &sliceSource{frames: framesOf(repeat(200, 5)...)}, opts)

	seq, stats, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 60, 120, 180}, indices(seq))
	assert.Equal(t, 3, stats.Forced)
}

// Consecutive keyframes are dissimilar unless the gap rule forced them.
func TestExtract_DistinctnessInvariant(t *testing.T) {
	oracle := &sceneOracle{}
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		scenes := make([]int, 0, 600)
		for len(scenes) < 600 {
			scenes = append(scenes, repeat(1+rng.Intn(40), rng.Intn(4))...)
		}

		opts := DefaultExtractorOptions()
		opts.Stride = 1 + rng.Intn(20)
		opts.EnsureMinimum = rng.Intn(2) == 0
		cmd := NewExtractCommand(&sliceSource{frames: framesOf(scenes...)}, sceneDetector{}, oracle, nil, opts, nil)

		seq, _, err := cmd.ExtractSequence(context.Background())
		require.NoError(t, err)
		require.False(t, seq.Empty())

		frames := seq.Frames()
		for i := 1; i < len(frames); i++ {
			prev, cur := frames[i-1], frames[i]
			if opts.EnsureMinimum && cur.Index-prev.Index > opts.MinimumGap {
				continue
			}
			s, err := oracle.Similarity(prev.Descriptors, cur.Descriptors)
			require.NoError(t, err)
			assert.Less(t, s, opts.DistinctThreshold, "seed %d: keyframes %d and %d", seed, prev.Index, cur.Index)
		}
	}
}

func TestExtract_RecoverableFailures(t *testing.T) {
	frames := framesOf(repeat(15, 1, 2, 3, 4)...)
	broken := frames[15].Image.(sceneImage)
	broken.broken = true
	frames[15].Image = broken

	oracle := &sceneOracle{fail: map[int]bool{3: true}}
	cmd := NewExtractCommand(&sliceSource{frames: frames}, sceneDetector{}, oracle, nil, DefaultExtractorOptions(), zaptest.NewLogger(t))

	seq, stats, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 45}, indices(seq))
	assert.Equal(t, 2, stats.Skipped)
}

func TestExtract_ClosesSequence(t *testing.T) {
	t.Run("source error", func(t *testing.T) {
		boom := errors.New("device gone")
		src := &sliceSource{frames: framesOf(1, 2), err: boom}
		q := domain.NewQuerySequence()

		_, err := newTestExtract(t, src, DefaultExtractorOptions()).Execute(context.Background(), q)
		assert.ErrorIs(t, err, boom)
		assert.True(t, q.Ended())
		assert.Equal(t, 1, q.Len())
	})

	t.Run("cancelled", func(t *testing.T) {
		src := &sliceSource{frames: framesOf(1, 2), gate: make(chan struct{})}
		q := domain.NewQuerySequence()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestExtract(t, src, DefaultExtractorOptions()).Execute(ctx, q)
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, q.Ended())
	})

	t.Run("invalid options", func(t *testing.T) {
		opts := DefaultExtractorOptions()
		opts.Stride = 0
		q := domain.NewQuerySequence()

		_, err := newTestExtract(t, &sliceSource{}, opts).Execute(context.Background(), q)
		assert.Error(t, err)
		assert.True(t, q.Ended())
	})
}

func TestExtract_SinkAndProgress(t *testing.T) {
	sink := &memorySink{}
	rec := &recorder{}
	cmd := newTestExtract(t, &sliceSource{frames: framesOf(repeat(15, 1, 2, 3)...)}, DefaultExtractorOptions())
	cmd.Sink = sink
	cmd.Progress = rec

	seq, _, err := cmd.ExtractSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seq.Frames(), sink.frames)
	assert.Equal(t, seq.Frames(), rec.accepted)
}
