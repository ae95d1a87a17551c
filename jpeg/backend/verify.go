package backend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/cocosip/jpegcore/jpeg/entropy"
	"github.com/cocosip/jpegcore/jpeg/pixel"
)

// ErrBackendMismatch is returned by Verify when a backend's output differs
// from the portable backend.
var ErrBackendMismatch = errors.New("backend: output differs from portable backend")

// Fingerprint hashes the sequence of groups a scan emits. It implements
// entropy.GroupObserver, so it can be attached to a BitWriter.
type Fingerprint struct {
	d      *xxhash.Digest
	groups int
	rec    [4]byte
}

// NewFingerprint returns an empty fingerprint.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{d: xxhash.New()}
}

// ObserveGroups implements entropy.GroupObserver.
func (f *Fingerprint) ObserveGroups(groups []entropy.BitGroup) {
	for _, g := range groups {
		binary.BigEndian.PutUint16(f.rec[0:2], g.Bits)
		binary.BigEndian.PutUint16(f.rec[2:4], g.Len)
		_, _ = f.d.Write(f.rec[:])
	}
	f.groups += len(groups)
}

// Sum64 returns the hash of all groups observed so far.
func (f *Fingerprint) Sum64() uint64 {
	return f.d.Sum64()
}

// Groups returns the number of groups observed.
func (f *Fingerprint) Groups() int {
	return f.groups
}

// Reset clears the fingerprint.
func (f *Fingerprint) Reset() {
	f.d.Reset()
	f.groups = 0
}

// Image is a planar 8-bit test image. Gray images leave G and B nil.
type Image struct {
	Width, Height, Stride int
	R, G, B               []byte
}

// Corpus is the input set Verify runs both backends over.
type Corpus struct {
	Blocks [][64]int32
	Images []Image
}

// DefaultCorpus returns a deterministic corpus covering zero blocks, dense
// and sparse blocks, long zero runs, AC coefficients at ±MaxACMagnitude and
// images whose sizes are not multiples of the block size.
func DefaultCorpus() *Corpus {
	rnd := rand.New(rand.NewSource(1))
	c := &Corpus{}

	c.Blocks = append(c.Blocks, [64]int32{})

	var edge [64]int32
	for i := range edge {
		edge[i] = entropy.MaxACMagnitude
		if i%2 == 1 {
			edge[i] = -entropy.MaxACMagnitude
		}
	}
	edge[0] = 1023
	c.Blocks = append(c.Blocks, edge)

	// Single coefficient at each zigzag position, covering every run length
	// and the block without EOB.
	tables := entropy.StandardTables()
	for k := 1; k < 64; k++ {
		var b [64]int32
		b[0] = int32(k - 32)
		b[tables.ZigZag(k)] = int32(k%7 - 3)
		if b[tables.ZigZag(k)] == 0 {
			b[tables.ZigZag(k)] = 1
		}
		c.Blocks = append(c.Blocks, b)
	}

	for i := 0; i < 200; i++ {
		var b [64]int32
		b[0] = int32(rnd.Intn(2047) - 1023)
		density := rnd.Intn(64)
		for k := 1; k < 64; k++ {
			if rnd.Intn(64) < density {
				b[k] = int32(rnd.Intn(2*entropy.MaxACMagnitude+1) - entropy.MaxACMagnitude)
			}
		}
		c.Blocks = append(c.Blocks, b)
	}

	for _, sz := range [][2]int{{1, 1}, {8, 8}, {13, 5}, {17, 9}, {24, 16}} {
		w, h := sz[0], sz[1]
		stride := w + 3
		img := Image{Width: w, Height: h, Stride: stride}
		img.R = make([]byte, stride*h)
		img.G = make([]byte, stride*h)
		img.B = make([]byte, stride*h)
		rnd.Read(img.R)
		rnd.Read(img.G)
		rnd.Read(img.B)
		c.Images = append(c.Images, img)

		gray := Image{Width: w, Height: h, Stride: stride, R: make([]byte, stride*h)}
		rnd.Read(gray.R)
		c.Images = append(c.Images, gray)
	}

	return c
}

// Verify runs candidate and the portable backend over corpus and reports
// the first difference as ErrBackendMismatch.
func Verify(candidate Backend, corpus *Corpus) error {
	ref := Portable()
	mismatch := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrBackendMismatch, candidate.Name(), fmt.Sprintf(format, args...))
	}

	for v := int32(1 - entropy.MagnitudeRange); v < entropy.MagnitudeRange; v++ {
		if got, want := candidate.EncodeMagnitude(v), ref.EncodeMagnitude(v); got != want {
			return mismatch("magnitude %d: got %+v, want %+v", v, got, want)
		}
	}

	for _, chroma := range []bool{false, true} {
		got, err := scanFingerprint(candidate, corpus.Blocks, chroma)
		if err != nil {
			return mismatch("encode blocks: %v", err)
		}
		want, err := scanFingerprint(ref, corpus.Blocks, chroma)
		if err != nil {
			return fmt.Errorf("backend: portable encode: %w", err)
		}
		if got != want {
			return mismatch("block scan fingerprint %016x, want %016x (chroma=%v)", got, want, chroma)
		}
	}

	for i, img := range corpus.Images {
		if err := compareImage(candidate, ref, &img); err != nil {
			return mismatch("image %d (%dx%d): %v", i, img.Width, img.Height, err)
		}
	}
	return nil
}

// scanFingerprint encodes blocks as one DC-predicted sequence and hashes the
// emitted groups.
func scanFingerprint(b Backend, blocks [][64]int32, chroma bool) (uint64, error) {
	t := b.Tables()
	dc, ac := t.DC(chroma), t.AC(chroma)
	fp := NewFingerprint()
	var buf entropy.BitBuf
	pred := int32(0)
	for i := range blocks {
		if buf.FullWithReserve(entropy.MaxGroupsPerBlock) {
			fp.ObserveGroups(buf.Groups())
			buf.Clear()
		}
		var err error
		if pred, err = b.EncodeBlock(&buf, &blocks[i], pred, dc, ac); err != nil {
			return 0, err
		}
	}
	fp.ObserveGroups(buf.Groups())
	return fp.Sum64(), nil
}

func compareImage(candidate, ref Backend, img *Image) error {
	const n = pixel.BlockSize
	var got, want [3]pixel.Block
	for by := 0; by < img.Height; by += n {
		for bx := 0; bx < img.Width; bx += n {
			o := by*img.Stride + bx
			h, w := img.Height-by, img.Width-bx
			if img.G == nil {
				candidate.ConvertGray(img.R[o:], img.Stride, h, w, got[0][:], n)
				ref.ConvertGray(img.R[o:], img.Stride, h, w, want[0][:], n)
				if err := compareBlocks(got[:1], want[:1]); err != nil {
					return fmt.Errorf("gray block (%d,%d): %w", bx, by, err)
				}
				continue
			}
			candidate.ConvertColor(img.R[o:], img.G[o:], img.B[o:], img.Stride, h, w, got[0][:], got[1][:], got[2][:], n)
			ref.ConvertColor(img.R[o:], img.G[o:], img.B[o:], img.Stride, h, w, want[0][:], want[1][:], want[2][:], n)
			if err := compareBlocks(got[:], want[:]); err != nil {
				return fmt.Errorf("color block (%d,%d): %w", bx, by, err)
			}
		}
	}
	return nil
}

func compareBlocks(got, want []pixel.Block) error {
	for c := range got {
		for i := range got[c] {
			if math.Float32bits(got[c][i]) != math.Float32bits(want[c][i]) {
				return fmt.Errorf("component %d sample %d: %v != %v", c, i, got[c][i], want[c][i])
			}
		}
	}
	return nil
}
