// Package features provides the reference image adapters: a binary
// corner/descriptor detector, a Hamming-distance similarity oracle with a
// ratio test, and a Laplacian-variance blur filter.
package features
