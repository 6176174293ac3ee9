package sqlite

import (
	"context"
	"database/sql"

	"toponav/internal/domain"
)

// graphTx wraps the statements used to replace the stored graph atomically
type graphTx struct {
	tx *sql.Tx
}

func (s *Store) beginTx(ctx context.Context) (*graphTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &graphTx{tx: tx}, nil
}

// clear removes the stored graph (runs are kept)
func (t *graphTx) clear() error {
	_, err := t.tx.Exec(`
		DELETE FROM keyframes;
		DELETE FROM edges;
		DELETE FROM nodes;
	`)
	return err
}

func (t *graphTx) insertNode(id domain.NodeID) error {
	_, err := t.tx.Exec(`INSERT INTO nodes (id) VALUES (?)`, int64(id))
	return err
}

// insertEdge adds an edge and returns its row id
func (t *graphTx) insertEdge(e *domain.Edge, position int) (int64, error) {
	res, err := t.tx.Exec(`
		INSERT INTO edges (source, dest, position) VALUES (?, ?, ?)
	`, int64(e.Source), int64(e.Dest), position)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *graphTx) insertKeyFrames(kind string, owner int64, seq domain.KeyFrameSequence) error {
	if seq.Empty() {
		return nil
	}
	stmt, err := t.tx.Prepare(`
		INSERT INTO keyframes (owner_kind, owner_id, position, frame_index, keypoints, descriptors)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos := 0; pos < seq.Len(); pos++ {
		kf := seq.At(pos)
		if _, err := stmt.Exec(kind, owner, pos, kf.Index, kf.Keypoints, encodeDescriptors(kf.Descriptors)); err != nil {
			return err
		}
	}
	return nil
}

func (t *graphTx) setMeta(key, value string) error {
	_, err := t.tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (t *graphTx) commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction; a no-op after commit
func (t *graphTx) Rollback() error {
	return t.tx.Rollback()
}
