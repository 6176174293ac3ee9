package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"toponav/internal/domain"
	"toponav/internal/ports"
)

var frameNumber = regexp.MustCompile(`(\d+)\.[A-Za-z]+$`)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

type frameFile struct {
	index int
	path  string
}

// DirSource implements ports.FrameSource over a directory of recorded frames.
// The frame index is the number at the end of the file name
// (image14.jpg -> 14); files without one are numbered by sorted position
// after the numbered ones.
type DirSource struct {
	dir   string
	files []frameFile
	next  int

	// Pace, when set, waits between frames to replay a recording at capture rate
	Pace time.Duration
}

// Ensure DirSource implements FrameSource
var _ ports.FrameSource = (*DirSource)(nil)

// NewDirSource scans dir for image files
func NewDirSource(dir string) (*DirSource, error) {
	dir = ExpandPath(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var numbered, unnumbered []frameFile
	for _, entry := range entries {
		if entry.IsDir() || !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if m := frameNumber.FindStringSubmatch(entry.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				numbered = append(numbered, frameFile{index: n, path: path})
				continue
			}
		}
		unnumbered = append(unnumbered, frameFile{path: path})
	}

	sort.Slice(numbered, func(i, j int) bool { return numbered[i].index < numbered[j].index })
	for i := 1; i < len(numbered); i++ {
		if numbered[i].index == numbered[i-1].index {
			return nil, fmt.Errorf("duplicate frame index %d in %s", numbered[i].index, dir)
		}
	}
	sort.Slice(unnumbered, func(i, j int) bool { return unnumbered[i].path < unnumbered[j].path })
	base := 0
	if len(numbered) > 0 {
		base = numbered[len(numbered)-1].index + 1
	}
	for i := range unnumbered {
		unnumbered[i].index = base + i
	}

	return &DirSource{dir: dir, files: append(numbered, unnumbered...)}, nil
}

// Len returns the number of frames in the directory
func (s *DirSource) Len() int { return len(s.files) }

// Next implements ports.FrameSource
func (s *DirSource) Next(ctx context.Context) (domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}
	if s.next >= len(s.files) {
		return domain.Frame{}, io.EOF
	}
	if s.Pace > 0 && s.next > 0 {
		select {
		case <-time.After(s.Pace):
		case <-ctx.Done():
			return domain.Frame{}, ctx.Err()
		}
	}

	f := s.files[s.next]
	s.next++

	img, err := imaging.Open(f.path)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("failed to decode frame %s: %w", f.path, err)
	}
	return domain.Frame{Index: f.index, Image: img}, nil
}

// Close implements ports.FrameSource
func (s *DirSource) Close() error {
	s.next = len(s.files)
	return nil
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
