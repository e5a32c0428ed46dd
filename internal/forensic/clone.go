package forensic

import (
	"hash/fnv"
	"math"

	"github.com/veriscope/veriscope/internal/imaging"
	"github.com/veriscope/veriscope/internal/model"
)

// maxReportedCloneMatches caps the match count in the findings; beyond
// that the exact number adds no signal.
const maxReportedCloneMatches = 10

// hashGridSize is the side of the reduced grid a block is downsampled
// to before hashing. 8x8 tolerates small re-save differences while
// still separating distinct content.
const hashGridSize = 8

// runCloneDetection partitions the image into fixed-size blocks,
// hashes a reduced grayscale rendition of each, and counts collisions
// between blocks separated by more than the minimum distance. Flat
// blocks are skipped: texture-less regions collide trivially without
// indicating clone-stamping.
func runCloneDetection(gray *imaging.Gray, th model.Thresholds) *probeOutcome {
	blockSize := th.CloneBlockSize
	if gray.W < 2*blockSize || gray.H < 2*blockSize {
		return &probeOutcome{order: 1, note: "clone: image too small to partition into blocks"}
	}

	minDist := float64(blockSize) * th.CloneMinDistanceBlocks
	type pos struct{ x, y int }
	seen := make(map[uint64]pos)
	matches := 0

	for y := 0; y+blockSize <= gray.H; y += blockSize {
		for x := 0; x+blockSize <= gray.W; x += blockSize {
			h, flat := blockHash(gray, x, y, blockSize, th.CloneFlatBlockVariance)
			if flat {
				continue
			}
			if prev, ok := seen[h]; ok {
				if math.Hypot(float64(x-prev.x), float64(y-prev.y)) > minDist {
					matches++
				}
			} else {
				seen[h] = pos{x, y}
			}
		}
	}

	if matches > maxReportedCloneMatches {
		matches = maxReportedCloneMatches
	}

	count := matches
	tag := matches >= th.CloneMatchThreshold
	return &probeOutcome{order: 1, apply: func(f *model.ForensicFindings) {
		f.CloneMatches = count
		if tag {
			f.AddTag(model.TagClone)
		}
	}}
}

// blockHash downsamples a block to an 8x8 grid of cell means and
// hashes the quantized pattern. Returns flat=true when the grid shows
// no texture.
func blockHash(gray *imaging.Gray, x0, y0, blockSize int, flatVariance float64) (uint64, bool) {
	cell := blockSize / hashGridSize
	if cell < 1 {
		cell = 1
	}

	grid := make([]float64, 0, hashGridSize*hashGridSize)
	for gy := 0; gy < hashGridSize; gy++ {
		for gx := 0; gx < hashGridSize; gx++ {
			var sum float64
			var n int
			for y := y0 + gy*cell; y < y0+(gy+1)*cell && y < y0+blockSize; y++ {
				for x := x0 + gx*cell; x < x0+(gx+1)*cell && x < x0+blockSize; x++ {
					sum += gray.At(x, y)
					n++
				}
			}
			if n > 0 {
				grid = append(grid, sum/float64(n))
			} else {
				grid = append(grid, 0)
			}
		}
	}

	if imaging.Variance(grid) < flatVariance {
		return 0, true
	}

	h := fnv.New64a()
	for _, v := range grid {
		h.Write([]byte{uint8(v)})
	}
	return h.Sum64(), false
}
