package domain

import (
	"fmt"
	"slices"
)

// NodeID identifies a landmark location in the floor map
type NodeID int

// Node is a landmark location with optional reference keyframes and its
// outgoing edges
type Node struct {
	ID         NodeID
	References KeyFrameSequence
	Links      []*Edge
}

// Edge is a directed traversal between two nodes, recorded as keyframes
type Edge struct {
	Source    NodeID
	Dest      NodeID
	KeyFrames KeyFrameSequence
}

// Traceable reports whether the edge has keyframes to track against.
// Edges without keyframes never take part in tracking.
func (e *Edge) Traceable() bool {
	return e != nil && !e.KeyFrames.Empty()
}

// Name renders the edge as "<src>_<dst>"
func (e *Edge) Name() string {
	return fmt.Sprintf("%d_%d", e.Source, e.Dest)
}

// Graph is the read-only floor map. It has no mutating methods; build it
// once with NewGraph.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
	edges []*Edge
}

// NewGraph validates and links nodes and edges. Node identities must be
// unique and every edge endpoint must name a known node. Edges are attached
// to their source node in the order given.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{nodes: make(map[NodeID]*Node, len(nodes))}

	for _, n := range nodes {
		if _, ok := g.nodes[n.ID]; ok {
			return nil, &DuplicateNodeError{ID: n.ID}
		}
		node := &Node{ID: n.ID, References: n.References}
		g.nodes[n.ID] = node
		g.order = append(g.order, n.ID)
	}
	slices.Sort(g.order)

	for i := range edges {
		e := edges[i]
		src, ok := g.nodes[e.Source]
		if !ok {
			return nil, &NotFoundError{ID: e.Source, Ref: "edge " + e.Name()}
		}
		if _, ok := g.nodes[e.Dest]; !ok {
			return nil, &NotFoundError{ID: e.Dest, Ref: "edge " + e.Name()}
		}
		edge := &Edge{Source: e.Source, Dest: e.Dest, KeyFrames: e.KeyFrames}
		src.Links = append(src.Links, edge)
		g.edges = append(g.edges, edge)
	}

	return g, nil
}

// Node returns the node with the given identity
func (g *Graph) Node(id NodeID) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return n, nil
}

// Nodes returns all nodes ordered by identity
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*Edge {
	return slices.Clone(g.edges)
}

// Len returns the number of nodes
func (g *Graph) Len() int { return len(g.nodes) }
