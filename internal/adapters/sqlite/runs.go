package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"toponav/internal/domain"
	"toponav/internal/ports"
)

// Run describes a persisted query run
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
	KeyFrames int
}

// RunSink persists accepted query keyframes under one run id
type RunSink struct {
	store *Store
	id    string
}

var _ ports.KeyFrameSink = (*RunSink)(nil)

// NewRun registers a run for the given frame source and returns its sink
func (s *Store) NewRun(ctx context.Context, source string) (*RunSink, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)
	`, id, source, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &RunSink{store: s, id: id}, nil
}

// ID returns the run id
func (r *RunSink) ID() string { return r.id }

// SaveKeyFrame implements ports.KeyFrameSink
func (r *RunSink) SaveKeyFrame(ctx context.Context, kf domain.KeyFrame) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO run_keyframes (run_id, frame_index, keypoints, descriptors)
		VALUES (?, ?, ?, ?)
	`, r.id, kf.Index, kf.Keypoints, encodeDescriptors(kf.Descriptors))
	if err != nil {
		return fmt.Errorf("failed to save keyframe %d: %w", kf.Index, err)
	}
	return nil
}

// ListRuns returns all runs, most recent first
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.started_at, COUNT(k.frame_index)
		FROM runs r LEFT JOIN run_keyframes k ON k.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &r.Source, &started, &r.KeyFrames); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns the keyframes recorded for a run as a closed sequence
func (s *Store) LoadRun(ctx context.Context, id string) (domain.KeyFrameSequence, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&exists); err != nil {
		return domain.KeyFrameSequence{}, err
	}
	if exists == 0 {
		return domain.KeyFrameSequence{}, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT frame_index, keypoints, descriptors
		FROM run_keyframes WHERE run_id = ? ORDER BY frame_index
	`, id)
	if err != nil {
		return domain.KeyFrameSequence{}, err
	}
	defer rows.Close()

	var frames []domain.KeyFrame
	for rows.Next() {
		var kf domain.KeyFrame
		var blob []byte
		if err := rows.Scan(&kf.Index, &kf.Keypoints, &blob); err != nil {
			return domain.KeyFrameSequence{}, err
		}
		if kf.Descriptors, err = decodeDescriptors(blob); err != nil {
			return domain.KeyFrameSequence{}, s.loadError(err)
		}
		frames = append(frames, kf)
	}
	if err := rows.Err(); err != nil {
		return domain.KeyFrameSequence{}, err
	}
	return domain.NewKeyFrameSequence(frames...)
}
