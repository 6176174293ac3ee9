package domain

import (
	"errors"
	"testing"
)

func testGraph(t *testing.T) *Graph {
	t.Helper()
	nodes := []Node{{ID: 3}, {ID: 1}, {ID: 2}}
	edges := []Edge{
		{Source: 1, Dest: 2, KeyFrames: MustKeyFrameSequence(KeyFrame{Index: 0}, KeyFrame{Index: 5})},
		{Source: 1, Dest: 3},
		{Source: 2, Dest: 3, KeyFrames: MustKeyFrameSequence(KeyFrame{Index: 1})},
	}
	g, err := NewGraph(nodes, edges)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestGraph_NodeRoundTrip(t *testing.T) {
	g := testGraph(t)

	for _, id := range []NodeID{1, 2, 3} {
		n, err := g.Node(id)
		if err != nil {
			t.Fatalf("Node(%d): unexpected error: %v", id, err)
		}
		if n.ID != id {
			t.Errorf("Node(%d) returned node %d", id, n.ID)
		}
	}
}

func TestGraph_NodeNotFound(t *testing.T) {
	g := testGraph(t)

	for _, id := range []NodeID{0, 4, -1} {
		_, err := g.Node(id)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Node(%d): expected ErrNotFound, got %v", id, err)
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.ID != id {
			t.Errorf("Node(%d): expected NotFoundError for %d, got %v", id, id, err)
		}
	}
}

func TestGraph_LinksAndOrder(t *testing.T) {
	g := testGraph(t)

	nodes := g.Nodes()
	if len(nodes) != 3 || nodes[0].ID != 1 || nodes[2].ID != 3 {
		t.Fatalf("expected nodes ordered by id, got %v", nodes)
	}

	n1, _ := g.Node(1)
	if len(n1.Links) != 2 {
		t.Fatalf("expected 2 links from node 1, got %d", len(n1.Links))
	}
	if !n1.Links[0].Traceable() {
		t.Error("edge 1_2 should be traceable")
	}
	if n1.Links[1].Traceable() {
		t.Error("edge 1_3 has no keyframes and should not be traceable")
	}
	if got := n1.Links[0].Name(); got != "1_2" {
		t.Errorf("expected name 1_2, got %s", got)
	}
}

func TestNewGraph_Errors(t *testing.T) {
	t.Run("duplicate node", func(t *testing.T) {
		_, err := NewGraph([]Node{{ID: 1}, {ID: 1}}, nil)
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		_, err := NewGraph([]Node{{ID: 1}}, []Edge{{Source: 1, Dest: 9}})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		var nf *NotFoundError
		if errors.As(err, &nf) && nf.Ref != "edge 1_9" {
			t.Errorf("expected reference to edge 1_9, got %q", nf.Ref)
		}
	})

	t.Run("edge from unknown node", func(t *testing.T) {
		_, err := NewGraph([]Node{{ID: 1}}, []Edge{{Source: 7, Dest: 1}})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewKeyFrameSequence_Order(t *testing.T) {
	if _, err := NewKeyFrameSequence(KeyFrame{Index: 1}, KeyFrame{Index: 1}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder for repeated index, got %v", err)
	}
	if _, err := NewKeyFrameSequence(KeyFrame{Index: 4}, KeyFrame{Index: 2}); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder for decreasing index, got %v", err)
	}
	seq, err := NewKeyFrameSequence(KeyFrame{Index: 0}, KeyFrame{Index: 14}, KeyFrame{Index: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.Len() != 3 || seq.At(1).Index != 14 {
		t.Errorf("unexpected sequence contents: %v", seq.Frames())
	}
}
