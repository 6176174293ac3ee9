package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"toponav/internal/domain"
)

// Manifest describes a floor map to build from recorded frame directories
type Manifest struct {
	Nodes []ManifestNode `yaml:"nodes"`
	Edges []ManifestEdge `yaml:"edges"`
}

// ManifestNode is a node with an optional directory of reference frames
type ManifestNode struct {
	ID         domain.NodeID `yaml:"id"`
	References string        `yaml:"references,omitempty"`
}

// ManifestEdge is an edge with the directory of frames recorded along it.
// An edge without frames is kept but untraceable.
type ManifestEdge struct {
	Source domain.NodeID `yaml:"source"`
	Dest   domain.NodeID `yaml:"dest"`
	Frames string        `yaml:"frames,omitempty"`
}

// LoadManifest reads a YAML manifest. Relative directories are resolved
// against the manifest's own directory.
func LoadManifest(path string) (*Manifest, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Nodes) == 0 {
		return nil, fmt.Errorf("manifest %s declares no nodes", path)
	}

	base := filepath.Dir(path)
	resolve := func(dir string) string {
		if dir == "" {
			return ""
		}
		dir = ExpandPath(dir)
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}
	for i := range m.Nodes {
		m.Nodes[i].References = resolve(m.Nodes[i].References)
	}
	for i := range m.Edges {
		m.Edges[i].Frames = resolve(m.Edges[i].Frames)
	}

	return &m, nil
}
