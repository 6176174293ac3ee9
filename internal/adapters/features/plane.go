package features

import "image"

// grayPlane is a float view of a grayscale NRGBA image (R=G=B)
type grayPlane struct {
	w, h int
	pix  []float64
}

func newGrayPlane(img *image.NRGBA) grayPlane {
	b := img.Bounds()
	g := grayPlane{w: b.Dx(), h: b.Dy()}
	g.pix = make([]float64, g.w*g.h)
	for y := 0; y < g.h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < g.w; x++ {
			g.pix[y*g.w+x] = float64(row[x*4])
		}
	}
	return g
}

func (g grayPlane) at(x, y int) float64 {
	return g.pix[y*g.w+x]
}
