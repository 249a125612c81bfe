package texture

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/mauserzjeh/dxt"
)

const (
	ddsMagic      = 0x20534444 // "DDS "
	ddsHeaderSize = 124

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000
	ddsdDepth       = 0x800000

	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40

	ddsCapsComplex = 0x8
	ddsCapsTexture = 0x1000
	ddsCaps2Volume = 0x200000

	dxgiR8G8B8A8Unorm     = 28
	dxgiR8G8B8A8UnormSRGB = 29
	dxgiBC1Unorm          = 71
	dxgiBC1UnormSRGB      = 72
	dxgiBC3Unorm          = 77
	dxgiBC3UnormSRGB      = 78
	dxgiB8G8R8A8Unorm     = 87
	dxgiB8G8R8A8UnormSRGB = 91

	dx10ResourceTexture3D = 4
)

var (
	fourCCDXT1 = fourCC("DXT1")
	fourCCDXT5 = fourCC("DXT5")
	fourCCDX10 = fourCC("DX10")
)

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

type ddsPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RMask       uint32
	GMask       uint32
	BMask       uint32
	AMask       uint32
}

type ddsHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       ddsPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type ddsDX10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

type ddsLayout int

const (
	layoutRGBA ddsLayout = iota
	layoutBGRA
	layoutDXT1
	layoutDXT5
)

// DecodeDDS reads the top mip level of a DDS file into RGBA8 staging data.
// Supported encodings are 32-bit uncompressed RGBA/BGRA, DXT1 (BC1) and DXT5 (BC3),
// both planar and volume, with or without a DX10 extension header.
//
// Parameters:
//   - r: the DDS stream
//
// Returns:
//   - common.TextureStagingData: the decoded pixels; Dimension is 3D for volume files
//   - bool: true if a DX10 header declared an sRGB format
//   - error: ErrUnsupportedFormat for unknown encodings, or a read error
func DecodeDDS(r io.Reader) (common.TextureStagingData, bool, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return common.TextureStagingData{}, false, fmt.Errorf("texture: read dds magic: %w", err)
	}
	if magic != ddsMagic {
		return common.TextureStagingData{}, false, fmt.Errorf("%w: not a DDS file", ErrUnsupportedFormat)
	}

	var hdr ddsHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return common.TextureStagingData{}, false, fmt.Errorf("texture: read dds header: %w", err)
	}
	if hdr.Size != ddsHeaderSize || hdr.Width == 0 || hdr.Height == 0 {
		return common.TextureStagingData{}, false, fmt.Errorf("%w: malformed DDS header", ErrUnsupportedFormat)
	}

	volume := hdr.Caps2&ddsCaps2Volume != 0 && hdr.Flags&ddsdDepth != 0
	layout, srgb, err := ddsResolveLayout(r, &hdr, &volume)
	if err != nil {
		return common.TextureStagingData{}, false, err
	}
	depth := uint32(1)
	if volume {
		depth = max(hdr.Depth, 1)
	}

	w, h := hdr.Width, hdr.Height
	sliceIn := ddsSliceSize(layout, w, h)
	raw := make([]byte, sliceIn*int(depth))
	if _, err := io.ReadFull(r, raw); err != nil {
		return common.TextureStagingData{}, false, fmt.Errorf("texture: read dds pixels: %w", err)
	}

	out := common.TextureStagingData{
		Width:     w,
		Height:    h,
		Depth:     depth,
		Dimension: common.Dimension2D,
		Pixels:    make([]byte, 0, int(w)*int(h)*4*int(depth)),
	}
	if volume {
		out.Dimension = common.Dimension3D
	}

	for z := 0; z < int(depth); z++ {
		slice := raw[z*sliceIn : (z+1)*sliceIn]
		var pix []byte
		switch layout {
		case layoutRGBA:
			pix = slice
		case layoutBGRA:
			pix = make([]byte, len(slice))
			for i := 0; i+3 < len(slice); i += 4 {
				pix[i], pix[i+1], pix[i+2], pix[i+3] = slice[i+2], slice[i+1], slice[i], slice[i+3]
			}
		case layoutDXT1:
			pix, err = dxt.DecodeDXT1(slice, uint(w), uint(h))
		case layoutDXT5:
			pix, err = dxt.DecodeDXT5(slice, uint(w), uint(h))
		}
		if err != nil {
			return common.TextureStagingData{}, false, fmt.Errorf("texture: decode dds slice %d: %w", z, err)
		}
		if len(pix) < out.SliceSize() {
			return common.TextureStagingData{}, false, fmt.Errorf("texture: decode dds slice %d: short output", z)
		}
		out.Pixels = append(out.Pixels, pix[:out.SliceSize()]...)
	}
	return out, srgb, nil
}

func ddsResolveLayout(r io.Reader, hdr *ddsHeader, volume *bool) (ddsLayout, bool, error) {
	pf := hdr.PixelFormat
	if pf.Flags&ddpfFourCC != 0 {
		switch pf.FourCC {
		case fourCCDXT1:
			return layoutDXT1, false, nil
		case fourCCDXT5:
			return layoutDXT5, false, nil
		case fourCCDX10:
			var ext ddsDX10Header
			if err := binary.Read(r, binary.LittleEndian, &ext); err != nil {
				return 0, false, fmt.Errorf("texture: read dds dx10 header: %w", err)
			}
			if ext.ResourceDimension == dx10ResourceTexture3D {
				*volume = true
			}
			switch ext.DXGIFormat {
			case dxgiR8G8B8A8Unorm:
				return layoutRGBA, false, nil
			case dxgiR8G8B8A8UnormSRGB:
				return layoutRGBA, true, nil
			case dxgiB8G8R8A8Unorm:
				return layoutBGRA, false, nil
			case dxgiB8G8R8A8UnormSRGB:
				return layoutBGRA, true, nil
			case dxgiBC1Unorm:
				return layoutDXT1, false, nil
			case dxgiBC1UnormSRGB:
				return layoutDXT1, true, nil
			case dxgiBC3Unorm:
				return layoutDXT5, false, nil
			case dxgiBC3UnormSRGB:
				return layoutDXT5, true, nil
			}
			return 0, false, fmt.Errorf("%w: DXGI format %d", ErrUnsupportedFormat, ext.DXGIFormat)
		}
		return 0, false, fmt.Errorf("%w: fourCC %#x", ErrUnsupportedFormat, pf.FourCC)
	}

	if pf.Flags&ddpfRGB != 0 && pf.RGBBitCount == 32 {
		switch {
		case pf.RMask == 0x000000ff && pf.GMask == 0x0000ff00 && pf.BMask == 0x00ff0000:
			return layoutRGBA, false, nil
		case pf.RMask == 0x00ff0000 && pf.GMask == 0x0000ff00 && pf.BMask == 0x000000ff:
			return layoutBGRA, false, nil
		}
	}
	return 0, false, fmt.Errorf("%w: %d-bit pixel format with masks %#x/%#x/%#x", ErrUnsupportedFormat,
		pf.RGBBitCount, pf.RMask, pf.GMask, pf.BMask)
}

func ddsSliceSize(layout ddsLayout, w, h uint32) int {
	bw, bh := int(max((w+3)/4, 1)), int(max((h+3)/4, 1))
	switch layout {
	case layoutDXT1:
		return bw * bh * 8
	case layoutDXT5:
		return bw * bh * 16
	default:
		return int(w) * int(h) * 4
	}
}

// EncodeDDS writes staging data as an uncompressed 32-bit RGBA DDS file with a single
// mip level. Volume staging data (Dimension3D) is written as a volume texture.
//
// Parameters:
//   - w: the destination stream
//   - data: the pixels to write; must be Valid
//
// Returns:
//   - error: an error if data is invalid or the write fails
func EncodeDDS(w io.Writer, data common.TextureStagingData) error {
	if !data.Valid() {
		return fmt.Errorf("texture: encode dds %q: pixel buffer does not match %dx%dx%d",
			data.Name, data.Width, data.Height, data.Depth)
	}

	hdr := ddsHeader{
		Size:              ddsHeaderSize,
		Flags:             ddsdCaps | ddsdHeight | ddsdWidth | ddsdPitch | ddsdPixelFormat,
		Height:            data.Height,
		Width:             data.Width,
		PitchOrLinearSize: data.Width * 4,
		MipMapCount:       1,
		PixelFormat: ddsPixelFormat{
			Size:        32,
			Flags:       ddpfRGB | ddpfAlphaPixels,
			RGBBitCount: 32,
			RMask:       0x000000ff,
			GMask:       0x0000ff00,
			BMask:       0x00ff0000,
			AMask:       0xff000000,
		},
		Caps: ddsCapsTexture,
	}
	if data.Dimension == common.Dimension3D {
		hdr.Flags |= ddsdDepth
		hdr.Depth = max(data.Depth, 1)
		hdr.Caps |= ddsCapsComplex
		hdr.Caps2 = ddsCaps2Volume
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(ddsMagic)); err != nil {
		return fmt.Errorf("texture: write dds magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("texture: write dds header: %w", err)
	}
	if _, err := w.Write(data.Pixels); err != nil {
		return fmt.Errorf("texture: write dds pixels: %w", err)
	}
	return nil
}
