package baseline

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cocosip/jpegcore/internal/options"
	"github.com/cocosip/jpegcore/jpeg/backend"
	"github.com/cocosip/jpegcore/jpeg/common"
	"github.com/cocosip/jpegcore/jpeg/entropy"
	"github.com/cocosip/jpegcore/jpeg/pixel"
)

// Encoder is a JPEG Baseline encoding session. It owns its bit buffer and
// backend and is not safe for concurrent use; run one Encoder per goroutine.
type Encoder struct {
	width      int
	height     int
	components int // source components, 1 or 3
	quality    int

	grayAsColor     bool
	restartInterval int
	backend         backend.Backend
	observers       []entropy.GroupObserver

	qtables [2][64]int32
	buf     entropy.BitBuf
}

// Option configures an Encoder.
type Option = options.Option[*Encoder]

// WithBackend sets the backend. Defaults to backend.Select(backend.WithEnv()).
func WithBackend(b backend.Backend) Option {
	return options.New(func(e *Encoder) error {
		if b == nil {
			return errors.New("baseline: nil backend")
		}
		e.backend = b
		return nil
	})
}

// WithGrayAsColor writes a grayscale source as a three-component frame
// with empty chroma blocks.
func WithGrayAsColor() Option {
	return options.NoError(func(e *Encoder) {
		e.grayAsColor = true
	})
}

// WithObserver attaches an observer to every batch of groups written to
// the scan.
func WithObserver(o entropy.GroupObserver) Option {
	return options.NoError(func(e *Encoder) {
		e.observers = append(e.observers, o)
	})
}

// WithRestartInterval emits a DRI segment and a restart marker every n
// MCUs. 0 disables restarts.
func WithRestartInterval(n int) Option {
	return options.New(func(e *Encoder) error {
		if n < 0 || n > 0xFFFF {
			return fmt.Errorf("baseline: restart interval %d out of range", n)
		}
		e.restartInterval = n
		return nil
	})
}

// NewEncoder validates the image geometry and creates an encoding session.
// components: 1 for grayscale, 3 for RGB. quality: 1-100.
func NewEncoder(width, height, components, quality int, opts ...Option) (*Encoder, error) {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return nil, common.ErrInvalidDimensions
	}
	if components != 1 && components != 3 {
		return nil, common.ErrInvalidComponents
	}
	if quality < 1 || quality > 100 {
		return nil, common.ErrInvalidQuality
	}

	enc := &Encoder{
		width:      width,
		height:     height,
		components: components,
		quality:    quality,
	}
	if err := options.Apply(enc, opts...); err != nil {
		return nil, err
	}
	if enc.backend == nil {
		enc.backend = backend.Select(backend.WithEnv()).Backend
	}

	enc.qtables[0] = common.ScaleQuantTable(common.DefaultLuminanceQuantTable, quality)
	enc.qtables[1] = common.ScaleQuantTable(common.DefaultChrominanceQuantTable, quality)

	return enc, nil
}

// Encode encodes interleaved 8-bit samples to JPEG Baseline.
func Encode(pixelData []byte, width, height, components, quality int, opts ...Option) ([]byte, error) {
	enc, err := NewEncoder(width, height, components, quality, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, pixelData); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Backend returns the backend the session encodes with.
func (e *Encoder) Backend() backend.Backend {
	return e.backend
}

// frameComponents is the number of components in the written frame.
func (e *Encoder) frameComponents() int {
	if e.components == 1 && !e.grayAsColor {
		return 1
	}
	return 3
}

// Encode writes one complete image (SOI to EOI) to w.
func (e *Encoder) Encode(w io.Writer, pixelData []byte) error {
	if len(pixelData) < e.width*e.height*e.components {
		return common.ErrBufferTooSmall
	}

	writer := common.NewWriter(w)
	if err := writer.WriteMarker(common.MarkerSOI); err != nil {
		return err
	}
	if err := e.writeDQT(writer); err != nil {
		return err
	}
	if err := e.writeSOF0(writer); err != nil {
		return err
	}
	if err := e.writeDHT(writer); err != nil {
		return err
	}
	if e.restartInterval > 0 {
		if err := writer.WriteSegment(common.MarkerDRI, []byte{byte(e.restartInterval >> 8), byte(e.restartInterval)}); err != nil {
			return err
		}
	}
	if err := e.writeSOS(writer); err != nil {
		return err
	}
	if err := e.encodeScan(w, writer, pixelData); err != nil {
		return fmt.Errorf("baseline: encode scan: %w", err)
	}
	return writer.WriteMarker(common.MarkerEOI)
}

// writeDQT writes the quantization tables in zigzag order.
func (e *Encoder) writeDQT(writer *common.Writer) error {
	tables := e.backend.Tables()
	n := 1
	if e.frameComponents() == 3 {
		n = 2
	}
	for i := 0; i < n; i++ {
		data := make([]byte, 1+64)
		data[0] = byte(i) // 8-bit precision, table i
		for k := 0; k < 64; k++ {
			data[1+k] = byte(e.qtables[i][tables.ZigZag(k)])
		}
		if err := writer.WriteSegment(common.MarkerDQT, data); err != nil {
			return err
		}
	}
	return nil
}

// writeSOF0 writes a baseline frame header with every component sampled
// 1x1 (4:4:4).
func (e *Encoder) writeSOF0(writer *common.Writer) error {
	nc := e.frameComponents()
	data := make([]byte, 6+nc*3)
	data[0] = 8
	data[1] = byte(e.height >> 8)
	data[2] = byte(e.height)
	data[3] = byte(e.width >> 8)
	data[4] = byte(e.width)
	data[5] = byte(nc)
	for c := 0; c < nc; c++ {
		data[6+c*3] = byte(c + 1)
		data[7+c*3] = 0x11
		data[8+c*3] = byte(min(c, 1))
	}
	return writer.WriteSegment(common.MarkerSOF0, data)
}

// writeDHT writes the standard tables the scan uses.
func (e *Encoder) writeDHT(writer *common.Writer) error {
	roles := []entropy.Role{entropy.LumaDC, entropy.LumaAC}
	if e.frameComponents() == 3 {
		roles = append(roles, entropy.ChromaDC, entropy.ChromaAC)
	}
	for _, role := range roles {
		bits, values := entropy.Table(role).Spec()
		if err := writer.WriteHuffmanTable(role.Class(), role.ID(), bits, values); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeSOS(writer *common.Writer) error {
	nc := e.frameComponents()
	data := make([]byte, 1+nc*2+3)
	data[0] = byte(nc)
	for c := 0; c < nc; c++ {
		data[1+c*2] = byte(c + 1)
		if c > 0 {
			data[2+c*2] = 0x11
		}
	}
	data[1+nc*2] = 0  // Ss
	data[2+nc*2] = 63 // Se
	data[3+nc*2] = 0  // Ah/Al
	return writer.WriteSegment(common.MarkerSOS, data)
}

// encodeScan codes all MCUs. The bit buffer is drained whenever it can no
// longer hold a full MCU, so EncodeBlock never overflows.
func (e *Encoder) encodeScan(w io.Writer, writer *common.Writer, pixelData []byte) error {
	e.buf.Clear()
	bw := entropy.NewBitWriter(w, e.observers...)

	var r, g, b []byte
	if e.components == 3 {
		r, g, b = pixel.SplitRGB(pixelData, e.width, e.height)
	} else {
		g = pixelData
	}

	be := e.backend
	tables := be.Tables()
	var blocks [3]pixel.Block
	var coef [64]float64
	var quant [64]int32
	var pred [3]int32

	const n = pixel.BlockSize
	mcusX := common.DivCeil(e.width, n)
	mcusY := common.DivCeil(e.height, n)
	mcu, restarts := 0, 0

	for by := 0; by < mcusY; by++ {
		for bx := 0; bx < mcusX; bx++ {
			if e.restartInterval > 0 && mcu > 0 && mcu%e.restartInterval == 0 {
				if err := bw.Drain(&e.buf); err != nil {
					return err
				}
				if err := bw.Pad(); err != nil {
					return err
				}
				if err := writer.WriteMarker(common.RSTMarker(restarts)); err != nil {
					return err
				}
				restarts++
				pred = [3]int32{}
			}
			if e.buf.Full() {
				if err := bw.Drain(&e.buf); err != nil {
					return err
				}
			}

			o := by*n*e.width + bx*n
			rows, cols := e.height-by*n, e.width-bx*n
			nblocks := 1
			if e.components == 3 {
				be.ConvertColor(r[o:], g[o:], b[o:], e.width, rows, cols, blocks[0][:], blocks[1][:], blocks[2][:], n)
				nblocks = 3
			} else {
				be.ConvertGray(g[o:], e.width, rows, cols, blocks[0][:], n)
			}

			for c := 0; c < nblocks; c++ {
				common.FDCT(blocks[c][:], &coef)
				common.Quantize(&coef, &e.qtables[min(c, 1)], &quant)
				var err error
				pred[c], err = be.EncodeBlock(&e.buf, &quant, pred[c], tables.DC(c > 0), tables.AC(c > 0))
				if err != nil {
					return err
				}
			}
			if e.components == 1 && e.grayAsColor {
				if err := entropy.EmitGrayChromaPlaceholders(&e.buf); err != nil {
					return err
				}
			}
			mcu++
		}
	}

	if err := bw.Drain(&e.buf); err != nil {
		return err
	}
	return bw.Pad()
}
