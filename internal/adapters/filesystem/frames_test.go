package filesystem

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func TestDirSource_OrderAndIndices(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "image14.png"), 14)
	writePNG(t, filepath.Join(dir, "image100.png"), 100)
	writePNG(t, filepath.Join(dir, "image0.png"), 0)
	writePNG(t, filepath.Join(dir, "cover.png"), 200)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource failed: %v", err)
	}
	if src.Len() != 4 {
		t.Fatalf("expected 4 frames, got %d", src.Len())
	}

	ctx := context.Background()
	wantIndex := []int{0, 14, 100, 101}
	wantGray := []uint8{0, 14, 100, 200}
	for i := range wantIndex {
		frame, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if frame.Index != wantIndex[i] {
			t.Errorf("frame %d: expected index %d, got %d", i, wantIndex[i], frame.Index)
		}
		r, _, _, _ := frame.Image.At(0, 0).RGBA()
		if got := color.GrayModel.Convert(frame.Image.At(0, 0)).(color.Gray).Y; got != wantGray[i] {
			t.Errorf("frame %d: expected gray %d, got %d (r=%d)", i, wantGray[i], got, r)
		}
	}

	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestDirSource_Errors(t *testing.T) {
	if _, err := NewDirSource(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a7.png"), 1)
	writePNG(t, filepath.Join(dir, "b7.png"), 2)
	if _, err := NewDirSource(dir); err == nil {
		t.Error("expected error for duplicate frame index")
	}
}

func TestDirSource_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "image1.png"), 1)
	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floor.yaml")
	content := `nodes:
  - id: 0
    references: nodes/0
  - id: 1
edges:
  - source: 0
    dest: 1
    frames: /abs/edge_0_1
  - source: 1
    dest: 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(m.Nodes) != 2 || len(m.Edges) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if want := filepath.Join(dir, "nodes/0"); m.Nodes[0].References != want {
		t.Errorf("expected references %s, got %s", want, m.Nodes[0].References)
	}
	if m.Nodes[1].References != "" {
		t.Errorf("expected no references for node 1, got %s", m.Nodes[1].References)
	}
	if m.Edges[0].Frames != "/abs/edge_0_1" {
		t.Errorf("absolute frames dir should be kept, got %s", m.Edges[0].Frames)
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("edges: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for manifest without nodes")
	}

	if err := os.WriteFile(path, []byte("nodes: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
