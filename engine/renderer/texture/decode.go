package texture

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-wind/common"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeFile decodes an image file into RGBA8 staging data of the requested type.
// DDS files go through DecodeDDS; every other extension is handed to the registered
// image decoders (PNG, JPEG, BMP, TIFF, WebP).
//
// A planar file requested as Type3D becomes a single-slice volume. A volume file
// requested as Type2D is rejected with ErrTypeMismatch.
//
// Parameters:
//   - path: the file to decode
//   - typ: the texture type the caller registered
//   - srgb: whether 8-bit colour data should be flagged as sRGB
//
// Returns:
//   - common.TextureStagingData: the decoded pixels, with Name set to the base file name
//   - error: a decode, open or type error
func DecodeFile(path string, typ Type, srgb bool) (common.TextureStagingData, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	var data common.TextureStagingData
	if strings.EqualFold(filepath.Ext(path), ".dds") {
		var fileSRGB bool
		data, fileSRGB, err = DecodeDDS(bufio.NewReader(f))
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("texture: decode %s: %w", path, err)
		}
		srgb = srgb || fileSRGB
	} else {
		img, _, err := image.Decode(bufio.NewReader(f))
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("%w: decode %s: %v", ErrUnsupportedFormat, path, err)
		}
		data = StagingFromImage(img)
	}

	data.Name = filepath.Base(path)
	data.SRGB = srgb
	switch {
	case typ == Type2D && data.Dimension == common.Dimension3D:
		return common.TextureStagingData{}, fmt.Errorf("%w: %s is a volume but was requested as %s", ErrTypeMismatch, path, typ)
	case typ == Type3D:
		data.Dimension = common.Dimension3D
		data.Depth = max(data.Depth, 1)
	}
	return data, nil
}

// StagingFromImage converts any image.Image into planar RGBA8 staging data.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - common.TextureStagingData: the pixels in RGBA order, Depth 1
func StagingFromImage(img image.Image) common.TextureStagingData {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return common.TextureStagingData{
		Pixels:    rgba.Pix,
		Width:     uint32(b.Dx()),
		Height:    uint32(b.Dy()),
		Depth:     1,
		Dimension: common.Dimension2D,
	}
}

// fallbackStaging is the opaque white placeholder uploaded when a load fails and the
// manager was created WithFallbackOnMissing.
func fallbackStaging(name string, typ Type) common.TextureStagingData {
	return common.TextureStagingData{
		Name:      name,
		Pixels:    []byte{0xff, 0xff, 0xff, 0xff},
		Width:     1,
		Height:    1,
		Depth:     1,
		Dimension: typ.dimension(),
	}
}
