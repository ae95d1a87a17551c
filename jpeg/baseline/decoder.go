package baseline

import (
	"bytes"
	"fmt"

	"github.com/cocosip/jpegcore/jpeg/common"
	"github.com/cocosip/jpegcore/jpeg/entropy"
)

var zigZag = entropy.ZigZag()

// Component represents a color component in the image
type Component struct {
	ID              byte // Component identifier
	H               int  // Horizontal sampling factor
	V               int  // Vertical sampling factor
	Tq              int  // Quantization table selector
	blocksW         int  // Component width in blocks, padded to whole MCUs
	blocksH         int  // Component height in blocks, padded to whole MCUs
	dcTableSelector int
	acTableSelector int
	dcPred          int
	data            []byte // Decoded samples, blocksW*8 per row
}

func (c *Component) stride() int {
	return c.blocksW * 8
}

// Decoder represents a JPEG Baseline decoder
type Decoder struct {
	width      int
	height     int
	components []*Component
	qtables    [4][64]int32
	dcTables   [4]*common.HuffmanTable
	acTables   [4]*common.HuffmanTable
	maxH       int
	maxV       int
	restartInt int
	scanned    bool
}

// Decode decodes JPEG Baseline data to interleaved 8-bit samples.
func Decode(jpegData []byte) (pixelData []byte, width, height, components int, err error) {
	reader := common.NewReader(bytes.NewReader(jpegData))
	d := &Decoder{}

	marker, err := reader.ReadMarker()
	if err != nil {
		return nil, 0, 0, 0, err
	}
	if marker != common.MarkerSOI {
		return nil, 0, 0, 0, common.ErrInvalidSOI
	}

	marker, err = reader.ReadMarker()
	for {
		if err != nil {
			return nil, 0, 0, 0, err
		}

		switch marker {
		case common.MarkerSOF0, common.MarkerSOF1:
			err = d.parseSOF(reader)

		case common.MarkerSOF2, common.MarkerSOF3:
			return nil, 0, 0, 0, fmt.Errorf("%w: marker 0x%04X", common.ErrUnsupportedFormat, marker)

		case common.MarkerDQT:
			err = d.parseDQT(reader)

		case common.MarkerDHT:
			err = d.parseDHT(reader)

		case common.MarkerDRI:
			err = d.parseDRI(reader)

		case common.MarkerSOS:
			if err = d.parseSOS(reader); err != nil {
				return nil, 0, 0, 0, err
			}
			// The scan runs up to the next marker, which is handled next.
			marker, err = d.decodeScan(reader)
			continue

		case common.MarkerEOI:
			if !d.scanned {
				return nil, 0, 0, 0, fmt.Errorf("%w: no scan before EOI", common.ErrInvalidData)
			}
			return d.convertToPixels(), d.width, d.height, len(d.components), nil

		case 0:
			// Data ended without EOI after the scan.
			if !d.scanned {
				return nil, 0, 0, 0, common.ErrInvalidData
			}
			return d.convertToPixels(), d.width, d.height, len(d.components), nil

		default:
			if common.HasLength(marker) {
				_, err = reader.ReadSegment()
			}
		}
		if err != nil {
			return nil, 0, 0, 0, err
		}
		marker, err = reader.ReadMarker()
	}
}

// parseSOF parses Start of Frame marker
func (d *Decoder) parseSOF(reader *common.Reader) error {
	data, err := reader.ReadSegment()
	if err != nil {
		return err
	}
	if len(data) < 6 {
		return common.ErrInvalidSOF
	}

	if precision := int(data[0]); precision != 8 {
		return fmt.Errorf("%w: precision %d (only 8-bit supported for baseline)", common.ErrUnsupportedFormat, precision)
	}

	d.height = int(data[1])<<8 | int(data[2])
	d.width = int(data[3])<<8 | int(data[4])
	numComponents := int(data[5])

	if d.width <= 0 || d.height <= 0 {
		return common.ErrInvalidDimensions
	}
	if numComponents != 1 && numComponents != 3 {
		return common.ErrInvalidComponents
	}
	if len(data) < 6+numComponents*3 {
		return common.ErrInvalidSOF
	}

	d.maxH, d.maxV = 1, 1
	d.components = make([]*Component, numComponents)
	for i := range d.components {
		offset := 6 + i*3
		comp := &Component{
			ID: data[offset],
			H:  int(data[offset+1] >> 4),
			V:  int(data[offset+1] & 0x0F),
			Tq: int(data[offset+2]),
		}
		if comp.H <= 0 || comp.H > 4 || comp.V <= 0 || comp.V > 4 || comp.Tq > 3 {
			return common.ErrInvalidSOF
		}
		d.maxH = max(d.maxH, comp.H)
		d.maxV = max(d.maxV, comp.V)
		d.components[i] = comp
	}

	mcuCols := common.DivCeil(d.width, d.maxH*8)
	mcuRows := common.DivCeil(d.height, d.maxV*8)
	for _, comp := range d.components {
		comp.blocksW = mcuCols * comp.H
		comp.blocksH = mcuRows * comp.V
		comp.data = make([]byte, comp.blocksW*comp.blocksH*64)
	}

	return nil
}

// parseDQT parses Define Quantization Table marker
func (d *Decoder) parseDQT(reader *common.Reader) error {
	data, err := reader.ReadSegment()
	if err != nil {
		return err
	}

	for offset := 0; offset < len(data); {
		pq := data[offset] >> 4   // Precision (0=8-bit, 1=16-bit)
		tq := data[offset] & 0x0F // Table ID
		if tq > 3 {
			return common.ErrInvalidDQT
		}
		offset++

		// Tables are stored in zigzag order
		if pq == 0 {
			if offset+64 > len(data) {
				return common.ErrInvalidDQT
			}
			for k := 0; k < 64; k++ {
				d.qtables[tq][zigZag[k]] = int32(data[offset+k])
			}
			offset += 64
		} else {
			if offset+128 > len(data) {
				return common.ErrInvalidDQT
			}
			for k := 0; k < 64; k++ {
				d.qtables[tq][zigZag[k]] = int32(data[offset+k*2])<<8 | int32(data[offset+k*2+1])
			}
			offset += 128
		}
	}

	return nil
}

// parseDHT parses Define Huffman Table marker
func (d *Decoder) parseDHT(reader *common.Reader) error {
	data, err := reader.ReadSegment()
	if err != nil {
		return err
	}

	for offset := 0; offset < len(data); {
		tc := data[offset] >> 4   // Table class (0=DC, 1=AC)
		th := data[offset] & 0x0F // Table ID
		if tc > 1 || th > 3 {
			return common.ErrInvalidDHT
		}
		offset++

		if offset+16 > len(data) {
			return common.ErrInvalidDHT
		}
		table := &common.HuffmanTable{}
		totalCodes := 0
		for i := 0; i < 16; i++ {
			table.Bits[i] = int(data[offset+i])
			totalCodes += table.Bits[i]
		}
		offset += 16

		if offset+totalCodes > len(data) {
			return common.ErrInvalidDHT
		}
		table.Values = make([]byte, totalCodes)
		copy(table.Values, data[offset:offset+totalCodes])
		offset += totalCodes

		if err := table.Build(); err != nil {
			return err
		}

		if tc == common.ClassDC {
			d.dcTables[th] = table
		} else {
			d.acTables[th] = table
		}
	}

	return nil
}

// parseDRI parses Define Restart Interval marker
func (d *Decoder) parseDRI(reader *common.Reader) error {
	data, err := reader.ReadSegment()
	if err != nil {
		return err
	}
	if len(data) != 2 {
		return common.ErrInvalidData
	}
	d.restartInt = int(data[0])<<8 | int(data[1])
	return nil
}

// parseSOS parses Start of Scan marker
func (d *Decoder) parseSOS(reader *common.Reader) error {
	data, err := reader.ReadSegment()
	if err != nil {
		return err
	}
	if d.components == nil {
		return fmt.Errorf("%w: SOS before SOF", common.ErrInvalidSOS)
	}
	if len(data) < 1 {
		return common.ErrInvalidSOS
	}

	ns := int(data[0])
	if ns != len(d.components) || len(data) < 1+ns*2+3 {
		// Baseline streams written here always interleave every component.
		return fmt.Errorf("%w: %d of %d components in scan", common.ErrUnsupportedFormat, ns, len(d.components))
	}

	for i := 0; i < ns; i++ {
		cs := data[1+i*2]
		td := int(data[2+i*2] >> 4)
		ta := int(data[2+i*2] & 0x0F)

		var comp *Component
		for _, c := range d.components {
			if c.ID == cs {
				comp = c
				break
			}
		}
		if comp == nil || td > 3 || ta > 3 {
			return common.ErrInvalidSOS
		}
		comp.dcTableSelector = td
		comp.acTableSelector = ta
	}

	return nil
}

// decodeScan decodes the entropy-coded segment and returns the marker that
// ended it.
func (d *Decoder) decodeScan(reader *common.Reader) (uint16, error) {
	scan, rst, next, err := reader.ReadEntropySegment()
	if err != nil {
		return 0, err
	}

	mcuCols := common.DivCeil(d.width, d.maxH*8)
	mcuRows := common.DivCeil(d.height, d.maxV*8)
	total := mcuCols * mcuRows

	// Each restart interval is decoded from its own byte range.
	bounds := append(append([]int{0}, rst...), len(scan))
	interval := total
	if d.restartInt > 0 {
		interval = d.restartInt
	}

	mcu := 0
	for seg := 0; seg+1 < len(bounds) && mcu < total; seg++ {
		huffDec := common.NewHuffmanDecoder(scan[bounds[seg]:bounds[seg+1]])
		for _, comp := range d.components {
			comp.dcPred = 0
		}

		for end := min(mcu+interval, total); mcu < end; mcu++ {
			mcuX, mcuY := mcu%mcuCols, mcu/mcuCols
			for _, comp := range d.components {
				for v := 0; v < comp.V; v++ {
					for h := 0; h < comp.H; h++ {
						if err := d.decodeBlock(huffDec, comp, mcuX*comp.H+h, mcuY*comp.V+v); err != nil {
							return 0, fmt.Errorf("baseline: MCU %d: %w", mcu, err)
						}
					}
				}
			}
		}
	}
	if mcu < total {
		return 0, fmt.Errorf("%w: scan ended after %d of %d MCUs", common.ErrInvalidData, mcu, total)
	}

	d.scanned = true
	return next, nil
}

// decodeBlock decodes a single 8x8 block
func (d *Decoder) decodeBlock(huffDec *common.HuffmanDecoder, comp *Component, blockX, blockY int) error {
	var coef [64]int32

	dcTable := d.dcTables[comp.dcTableSelector]
	acTable := d.acTables[comp.acTableSelector]
	if dcTable == nil || acTable == nil {
		return common.ErrInvalidDHT
	}

	s, err := huffDec.Decode(dcTable)
	if err != nil {
		return err
	}
	diff, err := huffDec.ReceiveExtend(int(s))
	if err != nil {
		return err
	}
	comp.dcPred += diff
	coef[0] = int32(comp.dcPred)

	for k := 1; k < 64; {
		rs, err := huffDec.Decode(acTable)
		if err != nil {
			return err
		}

		r := int(rs >> 4)
		s := int(rs & 0x0F)
		if s == 0 {
			if r != 15 {
				break // EOB
			}
			k += 16 // ZRL
			continue
		}

		k += r
		if k >= 64 {
			return common.ErrInvalidData
		}
		val, err := huffDec.ReceiveExtend(s)
		if err != nil {
			return err
		}
		coef[zigZag[k]] = int32(val)
		k++
	}

	qtable := &d.qtables[comp.Tq]
	for i := range coef {
		coef[i] *= qtable[i]
	}

	stride := comp.stride()
	common.IDCT(&coef, comp.data[blockY*8*stride+blockX*8:], stride)
	return nil
}

// sample returns the component sample covering image position (x, y).
func (d *Decoder) sample(comp *Component, x, y int) byte {
	sx := x * comp.H / d.maxH
	sy := y * comp.V / d.maxV
	return comp.data[sy*comp.stride()+sx]
}

// convertToPixels converts component data to interleaved pixel data
func (d *Decoder) convertToPixels() []byte {
	nc := len(d.components)
	pixelData := make([]byte, d.width*d.height*nc)

	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			offset := (y*d.width + x) * nc
			if nc == 1 {
				pixelData[offset] = d.sample(d.components[0], x, y)
				continue
			}
			r, g, b := ycbcrToRGB(
				d.sample(d.components[0], x, y),
				d.sample(d.components[1], x, y),
				d.sample(d.components[2], x, y),
			)
			pixelData[offset+0] = r
			pixelData[offset+1] = g
			pixelData[offset+2] = b
		}
	}

	return pixelData
}

// ycbcrToRGB converts YCbCr to RGB
func ycbcrToRGB(yy, cb, cr byte) (byte, byte, byte) {
	y := int(yy)
	cbVal := int(cb) - 128
	crVal := int(cr) - 128

	r := y + (91881*crVal)>>16
	g := y - ((22554*cbVal + 46802*crVal) >> 16)
	b := y + (116130*cbVal)>>16

	return byte(common.Clamp(r, 0, 255)),
		byte(common.Clamp(g, 0, 255)),
		byte(common.Clamp(b, 0, 255))
}
