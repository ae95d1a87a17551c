// Package codec holds helpers shared by the go-dicom codec adapters and
// their tests.
package codec

import (
	"fmt"

	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"
)

// TestPixelData is an in-memory imagetypes.PixelData used by tests and the
// command-line tool.
type TestPixelData struct {
	frames       [][]byte
	frameInfo    *imagetypes.FrameInfo
	encapsulated bool
}

// NewTestPixelData creates an empty TestPixelData for frameInfo.
func NewTestPixelData(frameInfo *imagetypes.FrameInfo) *TestPixelData {
	return &TestPixelData{frameInfo: frameInfo}
}

// NewEncapsulatedPixelData creates an empty TestPixelData that reports
// itself as encapsulated, as a destination for compressed frames.
func NewEncapsulatedPixelData(frameInfo *imagetypes.FrameInfo) *TestPixelData {
	return &TestPixelData{frameInfo: frameInfo, encapsulated: true}
}

// GetFrame returns frame frameIndex (0-based).
func (p *TestPixelData) GetFrame(frameIndex int) ([]byte, error) {
	if frameIndex < 0 || frameIndex >= len(p.frames) {
		return nil, fmt.Errorf("frame %d out of range (%d frames)", frameIndex, len(p.frames))
	}
	return p.frames[frameIndex], nil
}

// AddFrame appends a frame.
func (p *TestPixelData) AddFrame(frameData []byte) error {
	p.frames = append(p.frames, frameData)
	return nil
}

// FrameCount returns the number of frames.
func (p *TestPixelData) FrameCount() int {
	return len(p.frames)
}

// GetFrameInfo returns the frame metadata.
func (p *TestPixelData) GetFrameInfo() *imagetypes.FrameInfo {
	return p.frameInfo
}

// IsEncapsulated reports whether frames hold compressed data.
func (p *TestPixelData) IsEncapsulated() bool {
	return p.encapsulated
}
