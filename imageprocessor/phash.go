package imageprocessor

import (
	"fmt"
	"image"
	"math/bits"
	"sort"

	"gocv.io/x/gocv"
)

// Hash is a fixed-length perceptual hash bit sequence. Bits are packed into
// 64-bit words; the hex form is what the reference store persists.
type Hash struct {
	words []uint64
	size  int // hash size parameter; the hash carries size*size bits
}

// Size returns the hash size parameter.
func (h Hash) Size() int {
	return h.size
}

// Bits returns the total number of bits in the hash.
func (h Hash) Bits() int {
	return h.size * h.size
}

// Distance returns the Hamming distance to the other hash.
func (h Hash) Distance(other Hash) (int, error) {
	if h.size != other.size {
		return 0, fmt.Errorf("hash size mismatch: %d vs %d", h.size, other.size)
	}
	var d int
	for i := range h.words {
		d += bits.OnesCount64(h.words[i] ^ other.words[i])
	}
	return d, nil
}

// Hex returns the hash as a hexadecimal string.
func (h Hash) Hex() string {
	out := make([]byte, 0, len(h.words)*16)
	for _, w := range h.words {
		out = append(out, []byte(fmt.Sprintf("%016x", w))...)
	}
	return string(out)
}

// ParseHash decodes the hexadecimal form produced by Hex for the given hash
// size.
func ParseHash(hexStr string, size int) (Hash, error) {
	nWords := (size*size + 63) / 64
	if len(hexStr) != nWords*16 {
		return Hash{}, fmt.Errorf("hash hex length %d does not match size %d", len(hexStr), size)
	}
	words := make([]uint64, nWords)
	for i := 0; i < nWords; i++ {
		var w uint64
		if _, err := fmt.Sscanf(hexStr[i*16:(i+1)*16], "%016x", &w); err != nil {
			return Hash{}, fmt.Errorf("invalid hash hex: %v", err)
		}
		words[i] = w
	}
	return Hash{words: words, size: size}, nil
}

// ComputePerceptualHash computes a DCT-based perceptual hash of the image.
// The image is resized to four times the hash size, transformed, and the
// low-frequency size x size block is thresholded against its median. A hash
// size of 32 yields 1024 bits.
func ComputePerceptualHash(img gocv.Mat, hashSize int) (Hash, error) {
	if img.Empty() {
		return Hash{}, fmt.Errorf("cannot compute hash for empty image")
	}
	if hashSize < 2 {
		return Hash{}, fmt.Errorf("hash size %d too small", hashSize)
	}

	// Resize for the DCT. The 4x factor keeps enough high-frequency
	// content for the low-frequency block to be meaningful.
	side := hashSize * 4
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: side, Y: side}, 0, 0, gocv.InterpolationArea)

	// Convert to grayscale if not already
	gray := gocv.NewMat()
	defer gray.Close()
	if resized.Channels() != 1 {
		gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)
	} else {
		resized.CopyTo(&gray)
	}

	// Convert to float for DCT
	floatImg := gocv.NewMat()
	defer floatImg.Close()
	gray.ConvertTo(&floatImg, gocv.MatTypeCV32F)

	dct := gocv.NewMat()
	defer dct.Close()
	gocv.DCT(floatImg, &dct, 0)
	if dct.Empty() {
		return Hash{}, fmt.Errorf("DCT produced an empty matrix")
	}

	// Extract the low-frequency block
	lowFreq := dct.Region(image.Rect(0, 0, hashSize, hashSize))
	defer lowFreq.Close()

	values := make([]float32, 0, hashSize*hashSize)
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			values = append(values, lowFreq.GetFloatAt(y, x))
		}
	}
	median := calculateMedian(values)

	h := Hash{
		words: make([]uint64, (hashSize*hashSize+63)/64),
		size:  hashSize,
	}
	bit := 0
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			if lowFreq.GetFloatAt(y, x) > median {
				h.words[bit/64] |= 1 << uint(63-bit%64)
			}
			bit++
		}
	}
	return h, nil
}

// RotateQuarterTurns returns a copy of the image rotated by the given
// number of counter-clockwise quarter turns (0..3). The caller owns the
// returned Mat.
func RotateQuarterTurns(img gocv.Mat, turns int) gocv.Mat {
	out := gocv.NewMat()
	switch turns % 4 {
	case 0:
		img.CopyTo(&out)
	case 1:
		gocv.Rotate(img, &out, gocv.Rotate90CounterClockwise)
	case 2:
		gocv.Rotate(img, &out, gocv.Rotate180Clockwise)
	case 3:
		gocv.Rotate(img, &out, gocv.Rotate90Clockwise)
	}
	return out
}

// calculateMedian calculates the median value of a float32 slice
func calculateMedian(values []float32) float32 {
	// Make a copy to avoid modifying the original slice
	valuesCopy := make([]float32, len(values))
	copy(valuesCopy, values)

	sort.Slice(valuesCopy, func(i, j int) bool {
		return valuesCopy[i] < valuesCopy[j]
	})

	length := len(valuesCopy)
	if length == 0 {
		return 0
	} else if length%2 == 0 {
		return (valuesCopy[length/2-1] + valuesCopy[length/2]) / 2
	}
	return valuesCopy[length/2]
}
