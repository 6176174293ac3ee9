package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrStreamClosed is returned when appending to a sequence that has ended
var ErrStreamClosed = errors.New("query stream closed")

// QuerySequence is the growing query keyframe sequence shared by the
// extractor (single writer, append only) and the tracker (single reader).
//
// Readers block in Wait until a given index is appended or the stream ends.
// Every Append and Close closes the current notification channel and
// installs a fresh one, waking all waiters without polling.
type QuerySequence struct {
	mu      sync.Mutex
	frames  []KeyFrame
	ended   bool
	changed chan struct{}
}

// NewQuerySequence returns an empty, open sequence
func NewQuerySequence() *QuerySequence {
	return &QuerySequence{changed: make(chan struct{})}
}

// NewEndedQuerySequence returns a fully materialized, already ended
// sequence, used by offline localization.
func NewEndedQuerySequence(frames ...KeyFrame) (*QuerySequence, error) {
	q := NewQuerySequence()
	for _, kf := range frames {
		if err := q.Append(kf); err != nil {
			return nil, err
		}
	}
	q.Close()
	return q, nil
}

// Append adds a keyframe. Its index must exceed the last appended index.
func (q *QuerySequence) Append(kf KeyFrame) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ended {
		return ErrStreamClosed
	}
	if n := len(q.frames); n > 0 && kf.Index <= q.frames[n-1].Index {
		return fmt.Errorf("%w: %d follows %d", ErrOutOfOrder, kf.Index, q.frames[n-1].Index)
	}
	q.frames = append(q.frames, kf)
	q.notifyLocked()
	return nil
}

// Close marks the end of the stream. Safe to call more than once.
func (q *QuerySequence) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ended {
		return
	}
	q.ended = true
	q.notifyLocked()
}

func (q *QuerySequence) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// Len returns the number of keyframes appended so far
func (q *QuerySequence) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Ended reports whether the end-of-stream flag is set
func (q *QuerySequence) Ended() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ended
}

// At returns the keyframe at position i; i must be below Len
func (q *QuerySequence) At(i int) KeyFrame {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frames[i]
}

// Snapshot returns the keyframes appended so far as a closed sequence
func (q *QuerySequence) Snapshot() KeyFrameSequence {
	q.mu.Lock()
	defer q.mu.Unlock()
	return KeyFrameSequence{frames: append([]KeyFrame(nil), q.frames...)}
}

// Wait blocks until position i is readable (true), the stream ended before
// reaching it (false), or ctx is done.
func (q *QuerySequence) Wait(ctx context.Context, i int) (bool, error) {
	for {
		q.mu.Lock()
		if i < len(q.frames) {
			q.mu.Unlock()
			return true, nil
		}
		if q.ended {
			q.mu.Unlock()
			return false, nil
		}
		ch := q.changed
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
