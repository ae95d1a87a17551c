package baseline

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/cocosip/jpegcore/jpeg/backend"
	"github.com/cocosip/jpegcore/jpeg/common"
)

func grayGradient(width, height int) []byte {
	pixelData := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixelData[y*width+x] = byte((x + y) % 256)
		}
	}
	return pixelData
}

func rgbGradient(width, height int) []byte {
	pixelData := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			offset := (y*width + x) * 3
			pixelData[offset+0] = byte(x * 4)
			pixelData[offset+1] = byte(y * 4)
			pixelData[offset+2] = byte((x + y) * 2)
		}
	}
	return pixelData
}

func maxAbsDiff(a, b []byte) int {
	maxError := 0
	for i := range a {
		diff := int(a[i]) - int(b[i])
		if diff < 0 {
			diff = -diff
		}
		maxError = max(maxError, diff)
	}
	return maxError
}

// stdlibPixels decodes with image/jpeg and returns interleaved samples with
// the given component count.
func stdlibPixels(t *testing.T, data []byte, components int) []byte {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("image/jpeg decode failed: %v", err)
	}
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*components)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g, ok := img.(*image.Gray); ok {
				out = append(out, g.GrayAt(x, y).Y)
				continue
			}
			r, g, bb, _ := img.At(x, y).RGBA()
			if components == 1 {
				out = append(out, byte(r>>8))
				continue
			}
			out = append(out, byte(r>>8), byte(g>>8), byte(bb>>8))
		}
	}
	return out
}

func TestEncodeDecodeGrayscale(t *testing.T) {
	width, height := 64, 64
	pixelData := grayGradient(width, height)

	jpegData, err := Encode(pixelData, width, height, 1, 85)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	t.Logf("Encoded size: %d bytes (compression ratio: %.2fx)",
		len(jpegData), float64(len(pixelData))/float64(len(jpegData)))

	decodedData, w, h, components, err := Decode(jpegData)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if w != width || h != height {
		t.Errorf("Dimensions mismatch: got %dx%d, want %dx%d", w, h, width, height)
	}
	if components != 1 {
		t.Errorf("Components mismatch: got %d, want 1", components)
	}
	if len(decodedData) != width*height {
		t.Fatalf("Data length mismatch: got %d, want %d", len(decodedData), width*height)
	}

	if maxError := maxAbsDiff(pixelData, decodedData); maxError > 16 {
		t.Errorf("Maximum error too large: %d (expected <= 16)", maxError)
	}

	// An independent decoder must agree with ours.
	if d := maxAbsDiff(decodedData, stdlibPixels(t, jpegData, 1)); d > 3 {
		t.Errorf("image/jpeg disagrees with Decode by %d", d)
	}
}

func TestEncodeDecodeRGB(t *testing.T) {
	width, height := 64, 64
	pixelData := rgbGradient(width, height)

	jpegData, err := Encode(pixelData, width, height, 3, 90)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decodedData, w, h, components, err := Decode(jpegData)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if w != width || h != height || components != 3 {
		t.Fatalf("got %dx%dx%d, want %dx%dx3", w, h, components, width, height)
	}

	if maxError := maxAbsDiff(pixelData, decodedData); maxError > 40 {
		t.Errorf("Maximum error too large: %d (expected <= 40)", maxError)
	}

	stdlib := stdlibPixels(t, jpegData, 3)
	if maxError := maxAbsDiff(pixelData, stdlib); maxError > 40 {
		t.Errorf("image/jpeg maximum error too large: %d (expected <= 40)", maxError)
	}
}

func TestEncodeOddSizes(t *testing.T) {
	sizes := [][2]int{{1, 1}, {7, 3}, {13, 9}, {17, 8}, {8, 17}}
	for _, sz := range sizes {
		width, height := sz[0], sz[1]
		for _, components := range []int{1, 3} {
			var pixelData []byte
			if components == 1 {
				pixelData = grayGradient(width, height)
			} else {
				pixelData = rgbGradient(width, height)
			}

			jpegData, err := Encode(pixelData, width, height, components, 95)
			if err != nil {
				t.Fatalf("%dx%dx%d: Encode failed: %v", width, height, components, err)
			}
			decodedData, w, h, c, err := Decode(jpegData)
			if err != nil {
				t.Fatalf("%dx%dx%d: Decode failed: %v", width, height, components, err)
			}
			if w != width || h != height || c != components {
				t.Fatalf("%dx%dx%d: decoded as %dx%dx%d", width, height, components, w, h, c)
			}
			if maxError := maxAbsDiff(pixelData, decodedData); maxError > 24 {
				t.Errorf("%dx%dx%d: maximum error %d", width, height, components, maxError)
			}

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpegData))
			if err != nil {
				t.Fatalf("%dx%dx%d: image/jpeg config: %v", width, height, components, err)
			}
			if cfg.Width != width || cfg.Height != height {
				t.Errorf("%dx%dx%d: image/jpeg sees %dx%d", width, height, components, cfg.Width, cfg.Height)
			}
		}
	}
}

func TestEncodeGrayAsColor(t *testing.T) {
	width, height := 24, 16
	pixelData := grayGradient(width, height)

	jpegData, err := Encode(pixelData, width, height, 1, 90, WithGrayAsColor())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decodedData, _, _, components, err := Decode(jpegData)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if components != 3 {
		t.Fatalf("Components mismatch: got %d, want 3", components)
	}

	// Empty chroma decodes to R = G = B = Y.
	for i := 0; i < width*height; i++ {
		r, g, b := decodedData[3*i], decodedData[3*i+1], decodedData[3*i+2]
		if r != g || g != b {
			t.Fatalf("pixel %d not gray: %d %d %d", i, r, g, b)
		}
		if d := int(r) - int(pixelData[i]); d > 16 || d < -16 {
			t.Fatalf("pixel %d: got %d, want about %d", i, r, pixelData[i])
		}
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		t.Fatalf("image/jpeg decode failed: %v", err)
	}
	ycc, ok := img.(*image.YCbCr)
	if !ok {
		t.Fatalf("image/jpeg returned %T, want *image.YCbCr", img)
	}
	for i := range ycc.Cb {
		if ycc.Cb[i] != 128 || ycc.Cr[i] != 128 {
			t.Fatalf("chroma sample %d = (%d, %d), want (128, 128)", i, ycc.Cb[i], ycc.Cr[i])
		}
	}
}

func TestEncodeRestartInterval(t *testing.T) {
	width, height := 40, 24
	pixelData := rgbGradient(width, height)

	plain, err := Encode(pixelData, width, height, 3, 90)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, interval := range []int{1, 2, 7, 100} {
		jpegData, err := Encode(pixelData, width, height, 3, 90, WithRestartInterval(interval))
		if err != nil {
			t.Fatalf("interval %d: Encode failed: %v", interval, err)
		}
		if !bytes.Contains(jpegData, []byte{0xFF, 0xDD, 0x00, 0x04, byte(interval >> 8), byte(interval)}) {
			t.Errorf("interval %d: DRI segment missing", interval)
		}

		decodedData, _, _, _, err := Decode(jpegData)
		if err != nil {
			t.Fatalf("interval %d: Decode failed: %v", interval, err)
		}
		want, _, _, _, err := Decode(plain)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !bytes.Equal(decodedData, want) {
			t.Errorf("interval %d: restarts changed the decoded image", interval)
		}

		if d := maxAbsDiff(decodedData, stdlibPixels(t, jpegData, 3)); d > 8 {
			t.Errorf("interval %d: image/jpeg disagrees by %d", interval, d)
		}
	}

	if _, err := Encode(pixelData, width, height, 3, 90, WithRestartInterval(-1)); err == nil {
		t.Error("negative restart interval accepted")
	}
}

func TestEncodeBackendsIdentical(t *testing.T) {
	width, height := 45, 31
	rgb := rgbGradient(width, height)
	gray := grayGradient(width, height)

	ref, err := Encode(rgb, width, height, 3, 75, WithBackend(backend.Portable()))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	refGray, err := Encode(gray, width, height, 1, 75, WithBackend(backend.Portable()), WithGrayAsColor())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, name := range backend.Available() {
		b, err := backend.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}

		fp := backend.NewFingerprint()
		got, err := Encode(rgb, width, height, 3, 75, WithBackend(b), WithObserver(fp))
		if err != nil {
			t.Fatalf("%s: Encode failed: %v", name, err)
		}
		if !bytes.Equal(got, ref) {
			t.Errorf("%s: output differs from portable backend", name)
		}
		if fp.Groups() == 0 {
			t.Errorf("%s: observer saw no groups", name)
		}

		got, err = Encode(gray, width, height, 1, 75, WithBackend(b), WithGrayAsColor())
		if err != nil {
			t.Fatalf("%s: Encode failed: %v", name, err)
		}
		if !bytes.Equal(got, refGray) {
			t.Errorf("%s: gray output differs from portable backend", name)
		}
	}
}

func TestEncoderSessionReuse(t *testing.T) {
	width, height := 32, 32
	enc, err := NewEncoder(width, height, 1, 80)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	var first, second bytes.Buffer
	if err := enc.Encode(&first, grayGradient(width, height)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := enc.Encode(&second, grayGradient(width, height)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("second image from the same session differs")
	}
}

func TestEncodeInvalidParameters(t *testing.T) {
	pixelData := make([]byte, 64*64)

	tests := []struct {
		name       string
		width      int
		height     int
		components int
		quality    int
		wantErr    error
	}{
		{"Invalid width", 0, 64, 1, 85, common.ErrInvalidDimensions},
		{"Invalid height", 64, 0, 1, 85, common.ErrInvalidDimensions},
		{"Invalid components", 64, 64, 2, 85, common.ErrInvalidComponents},
		{"Invalid quality low", 64, 64, 1, 0, common.ErrInvalidQuality},
		{"Invalid quality high", 64, 64, 1, 101, common.ErrInvalidQuality},
		{"Short buffer", 64, 64, 3, 85, common.ErrBufferTooSmall},
		{"Valid", 64, 64, 1, 85, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(pixelData, tt.width, tt.height, tt.components, tt.quality)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Encode(pixelData, 64, 64, 1, 85, WithBackend(nil)); err == nil {
		t.Error("nil backend accepted")
	}
}

func TestDecodeRejectsBadStreams(t *testing.T) {
	good, err := Encode(grayGradient(16, 16), 16, 16, 1, 85)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no SOI", good[2:]},
		{"truncated scan", good[:len(good)/2]},
		{"headers only", good[:20]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, _, _, err := Decode(tt.data); err == nil {
				t.Error("Decode succeeded on a broken stream")
			}
		})
	}
}

func TestQualityLevels(t *testing.T) {
	width, height := 32, 32
	pixelData := make([]byte, width*height)
	for i := range pixelData {
		pixelData[i] = byte(i % 256)
	}

	prevSize := 0
	for _, quality := range []int{10, 50, 90, 100} {
		jpegData, err := Encode(pixelData, width, height, 1, quality)
		if err != nil {
			t.Fatalf("Encode at quality %d failed: %v", quality, err)
		}
		t.Logf("Quality %d: size = %d bytes", quality, len(jpegData))
		if len(jpegData) < prevSize {
			t.Errorf("quality %d produced %d bytes, less than %d at the previous level", quality, len(jpegData), prevSize)
		}
		prevSize = len(jpegData)
	}
}

func BenchmarkEncodeGrayscale(b *testing.B) {
	width, height := 512, 512
	pixelData := grayGradient(width, height)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(pixelData, width, height, 1, 85); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeRGB(b *testing.B) {
	width, height := 512, 512
	pixelData := rgbGradient(width, height)

	for _, name := range backend.Available() {
		be, err := backend.Lookup(name)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Encode(pixelData, width, height, 3, 85, WithBackend(be)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecodeRGB(b *testing.B) {
	width, height := 512, 512
	jpegData, err := Encode(rgbGradient(width, height), width, height, 3, 85)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, _, err := Decode(jpegData); err != nil {
			b.Fatal(err)
		}
	}
}
