package tileset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a png, jpeg, bmp or webp atlas.
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - image.Image: the decoded image
//   - error: an error if the format is unknown or the data is corrupt
func DecodeImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("decode %s image: empty", format)
	}
	return img, nil
}

// ToRGBA converts img to a tightly packed RGBA image with its origin at (0, 0), scaling it by
// scale with nearest-neighbour sampling. A scale of 0 or 1 copies.
//
// Parameters:
//   - img: the source image
//   - scale: the integer pixel scale
//
// Returns:
//   - *image.RGBA: the converted image
func ToRGBA(img image.Image, scale uint32) *image.RGBA {
	if scale == 0 {
		scale = 1
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*int(scale), b.Dy()*int(scale)))
	if scale == 1 {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// StagingData wraps an RGBA image as texture upload data.
//
// Parameters:
//   - img: the RGBA image, origin at (0, 0)
//
// Returns:
//   - common.TextureStagingData: the pixels and size
func StagingData(img *image.RGBA) common.TextureStagingData {
	b := img.Bounds()
	pix := img.Pix
	if img.Stride != b.Dx()*4 {
		pix = make([]byte, 0, b.Dx()*b.Dy()*4)
		for y := 0; y < b.Dy(); y++ {
			off := y * img.Stride
			pix = append(pix, img.Pix[off:off+b.Dx()*4]...)
		}
	}
	return common.TextureStagingData{
		Pixels: pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}
}
