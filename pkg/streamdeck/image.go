package streamdeck

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"

	"github.com/disintegration/gift"
	"golang.org/x/image/bmp"
)

const jpegQuality = 95

// ImageMode is the on-wire encoding a revision expects for key images.
type ImageMode uint8

const (
	ImageModeNone ImageMode = iota
	ImageModeBMP
	ImageModeJPEG
)

// Orientation is the fix-up applied before encoding so images appear
// upright on the hardware, which mounts some key displays rotated.
type Orientation uint8

const (
	OrientUpright   Orientation = iota
	OrientRotate180             // Original, Original V2, MK2, XL, XL V2
	OrientTranspose             // Mini, Mini MK2
)

// ImageFormat describes the raster a revision expects for key images.
type ImageFormat struct {
	Mode        ImageMode
	Size        image.Point
	Orientation Orientation
}

// KeyImageFormat returns the key image raster for the Kind. Mode is
// ImageModeNone for revisions without per-key displays.
func (k Kind) KeyImageFormat() ImageFormat {
	switch k {
	case KindOriginal:
		return ImageFormat{Mode: ImageModeBMP, Size: image.Pt(72, 72), Orientation: OrientRotate180}
	case KindOriginalV2, KindMK2:
		return ImageFormat{Mode: ImageModeJPEG, Size: image.Pt(72, 72), Orientation: OrientRotate180}
	case KindMini, KindMiniMK2:
		return ImageFormat{Mode: ImageModeBMP, Size: image.Pt(80, 80), Orientation: OrientTranspose}
	case KindXL, KindXLV2:
		return ImageFormat{Mode: ImageModeJPEG, Size: image.Pt(96, 96), Orientation: OrientRotate180}
	case KindPlus:
		return ImageFormat{Mode: ImageModeJPEG, Size: image.Pt(120, 120)}
	default:
		return ImageFormat{Mode: ImageModeNone}
	}
}

// ConvertKeyImage resizes, reorients and encodes an image into the
// device-native bytes for one key of the given Kind. The result is what
// Device.WriteImage consumes.
func ConvertKeyImage(k Kind, img image.Image) ([]byte, error) {
	f := k.KeyImageFormat()
	if f.Mode == ImageModeNone {
		return nil, fmt.Errorf("streamdeck: %s has no key displays: %w", k, ErrUnsupportedOperation)
	}

	filters := []gift.Filter{gift.Resize(f.Size.X, f.Size.Y, gift.LanczosResampling)}
	switch f.Orientation {
	case OrientRotate180:
		filters = append(filters, gift.Rotate180())
	case OrientTranspose:
		filters = append(filters, gift.Transpose())
	}

	g := gift.New(filters...)
	out := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(out, flatten(img))

	return encodeImage(f.Mode, out)
}

// ImageRect is an encoded image plus its pixel size, ready for a touch
// strip region write.
type ImageRect struct {
	W, H int
	Data []byte
}

// NewImageRect encodes an image at its natural size for the touch
// strip. The caller sizes the image to the region it will cover.
func NewImageRect(img image.Image) (ImageRect, error) {
	b := img.Bounds()
	data, err := encodeImage(ImageModeJPEG, flatten(img))
	if err != nil {
		return ImageRect{}, err
	}
	return ImageRect{W: b.Dx(), H: b.Dy(), Data: data}, nil
}

// flatten composites img over an opaque black background. The BMP
// encoder widens non-opaque rasters to 32-bit, which the bitmap-era
// hardware does not accept.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)
	return flat
}

func encodeImage(mode ImageMode, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	switch mode {
	case ImageModeBMP:
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("streamdeck: bmp encode: %w", err)
		}
	case ImageModeJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("streamdeck: jpeg encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("streamdeck: no image encoding: %w", ErrUnsupportedOperation)
	}
	return buf.Bytes(), nil
}

var (
	blankMu     sync.Mutex
	blankImages = map[Kind][]byte{}
)

// BlankKeyImage returns the encoded all-black image used to clear one
// key, or nil for revisions without key displays. The slice is cached
// and shared; callers must not modify it.
func (k Kind) BlankKeyImage() []byte {
	f := k.KeyImageFormat()
	if f.Mode == ImageModeNone {
		return nil
	}

	blankMu.Lock()
	defer blankMu.Unlock()
	if b, ok := blankImages[k]; ok {
		return b
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Size.X, f.Size.Y))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	data, err := encodeImage(f.Mode, img)
	if err != nil {
		// Encoding a fixed raster into memory cannot fail, and a nil
		// blank would turn every clear into a zero-page no-op.
		panic(fmt.Sprintf("streamdeck: encode blank %s image: %v", k, err))
	}
	blankImages[k] = data
	return data
}
