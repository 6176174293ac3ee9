package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"toponav/internal/domain"
	"toponav/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

var errEmptyGraph = errors.New("graph has no nodes")

const (
	ownerNode = "node"
	ownerEdge = "edge"
)

// Store implements ports.GraphStore using SQLite. Keyframe descriptors are
// kept as zstd-compressed blobs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Ensure Store implements GraphStore
var _ ports.GraphStore = (*Store)(nil)

// Open opens (creating if needed) the store at dbPath
func Open(dbPath string) (*Store, error) {
	if len(dbPath) > 0 && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Performance pragmas + schema in single batch (reduces round-trips)
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY,
			source INTEGER NOT NULL,
			dest INTEGER NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS keyframes (
			owner_kind TEXT NOT NULL,
			owner_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			frame_index INTEGER NOT NULL,
			keypoints INTEGER NOT NULL,
			descriptors BLOB,
			PRIMARY KEY (owner_kind, owner_id, position)
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS run_keyframes (
			run_id TEXT NOT NULL,
			frame_index INTEGER NOT NULL,
			keypoints INTEGER NOT NULL,
			descriptors BLOB,
			PRIMARY KEY (run_id, frame_index)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source, position);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string { return s.dbPath }

func (s *Store) loadError(err error) error {
	return &domain.LoadError{Source: s.dbPath, Err: err}
}

// LoadGraph implements ports.GraphStore
func (s *Store) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.loadError(errEmptyGraph)
	}
	if err != nil {
		return nil, s.loadError(err)
	}
	if version != schemaVersion {
		return nil, s.loadError(fmt.Errorf("schema version %s, expected %s", version, schemaVersion))
	}

	refs, err := s.loadKeyFrames(ctx, ownerNode)
	if err != nil {
		return nil, err
	}
	edgeFrames, err := s.loadKeyFrames(ctx, ownerEdge)
	if err != nil {
		return nil, err
	}

	var nodes []domain.Node
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM nodes ORDER BY id`)
	if err != nil {
		return nil, s.loadError(err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, s.loadError(err)
		}
		nodes = append(nodes, domain.Node{ID: domain.NodeID(id), References: refs[id]})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, s.loadError(err)
	}
	if len(nodes) == 0 {
		return nil, s.loadError(errEmptyGraph)
	}

	var edges []domain.Edge
	rows, err = s.db.QueryContext(ctx, `SELECT id, source, dest FROM edges ORDER BY source, position`)
	if err != nil {
		return nil, s.loadError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, src, dst int64
		if err := rows.Scan(&id, &src, &dst); err != nil {
			return nil, s.loadError(err)
		}
		edges = append(edges, domain.Edge{
			Source:    domain.NodeID(src),
			Dest:      domain.NodeID(dst),
			KeyFrames: edgeFrames[id],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, s.loadError(err)
	}

	// An edge naming an unknown node surfaces as domain.NotFoundError
	g, err := domain.NewGraph(nodes, edges)
	if err != nil {
		return nil, s.loadError(err)
	}
	return g, nil
}

// loadKeyFrames returns the keyframe sequences of every owner of the given kind
func (s *Store) loadKeyFrames(ctx context.Context, kind string) (map[int64]domain.KeyFrameSequence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, frame_index, keypoints, descriptors
		FROM keyframes WHERE owner_kind = ?
		ORDER BY owner_id, position
	`, kind)
	if err != nil {
		return nil, s.loadError(err)
	}
	defer rows.Close()

	frames := make(map[int64][]domain.KeyFrame)
	for rows.Next() {
		var owner int64
		var kf domain.KeyFrame
		var blob []byte
		if err := rows.Scan(&owner, &kf.Index, &kf.Keypoints, &blob); err != nil {
			return nil, s.loadError(err)
		}
		if kf.Descriptors, err = decodeDescriptors(blob); err != nil {
			return nil, s.loadError(fmt.Errorf("%s %d keyframe %d: %w", kind, owner, kf.Index, err))
		}
		frames[owner] = append(frames[owner], kf)
	}
	if err := rows.Err(); err != nil {
		return nil, s.loadError(err)
	}

	out := make(map[int64]domain.KeyFrameSequence, len(frames))
	for owner, kfs := range frames {
		seq, err := domain.NewKeyFrameSequence(kfs...)
		if err != nil {
			return nil, s.loadError(fmt.Errorf("%s %d: %w", kind, owner, err))
		}
		out[owner] = seq
	}
	return out, nil
}

// SaveGraph implements ports.GraphStore. It replaces any stored graph.
func (s *Store) SaveGraph(ctx context.Context, g *domain.Graph) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.clear(); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}

	for _, n := range g.Nodes() {
		if err := tx.insertNode(n.ID); err != nil {
			return fmt.Errorf("failed to insert node %d: %w", n.ID, err)
		}
		if err := tx.insertKeyFrames(ownerNode, int64(n.ID), n.References); err != nil {
			return fmt.Errorf("failed to insert references of node %d: %w", n.ID, err)
		}
		for pos, e := range n.Links {
			id, err := tx.insertEdge(e, pos)
			if err != nil {
				return fmt.Errorf("failed to insert edge %s: %w", e.Name(), err)
			}
			if err := tx.insertKeyFrames(ownerEdge, id, e.KeyFrames); err != nil {
				return fmt.Errorf("failed to insert keyframes of edge %s: %w", e.Name(), err)
			}
		}
	}

	if err := tx.setMeta("schema_version", schemaVersion); err != nil {
		return err
	}
	if err := tx.setMeta("nodes", strconv.Itoa(g.Len())); err != nil {
		return err
	}
	return tx.commit()
}
