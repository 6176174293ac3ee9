package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph lookups and loading
var (
	ErrNotFound  = errors.New("not found")
	ErrLoad      = errors.New("load failed")
	ErrDuplicate = errors.New("duplicate node")
)

// NotFoundError is returned when a node identity is not present in the graph
type NotFoundError struct {
	ID NodeID
	// Ref names what referenced the missing node, e.g. "edge 3_7"
	Ref string
}

func (e *NotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("node %d not found (referenced by %s)", e.ID, e.Ref)
	}
	return fmt.Sprintf("node %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LoadError is returned when a persisted graph or keyframe cannot be read
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// DuplicateNodeError is returned when two nodes share an identity
type DuplicateNodeError struct {
	ID NodeID
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %d", e.ID)
}

func (e *DuplicateNodeError) Is(target error) bool {
	return target == ErrDuplicate
}
