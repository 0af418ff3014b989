package imageset

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// Image is an image file ready for upload.
type Image struct {
	Name     string // base file name
	Path     string
	MIMEType string
	Data     []byte
}

// LoadOptions controls [Load].
type LoadOptions struct {
	Paths []string

	// MaxDimension, when positive, bounds the longer side in pixels.
	// Larger images are scaled down with Lanczos resampling and re-encoded
	// in their original format. Smaller images are passed through untouched.
	MaxDimension int
}

// Load reads the images in order.
func Load(ctx context.Context, opts LoadOptions) ([]Image, error) {
	images := make([]Image, 0, len(opts.Paths))
	for _, p := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := loadOne(p, opts.MaxDimension)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// LoadSet is a shorthand for loading every image in s.
func LoadSet(ctx context.Context, s *Set, maxDim int) ([]Image, error) {
	return Load(ctx, LoadOptions{Paths: s.Paths(), MaxDimension: maxDim})
}

// FromBytes builds an Image from data already in memory, such as an upload.
// name must carry a supported extension; it is reduced to its base name.
func FromBytes(name string, data []byte, maxDim int) (Image, error) {
	base := filepath.Base(name)
	mt, err := errors.ImageMIMEType(base)
	if err != nil {
		return Image{}, err
	}
	if len(data) == 0 {
		return Image{}, errors.New(errors.ErrCodeInvalidImage, "image %s is empty", base)
	}
	if maxDim > 0 {
		if data, err = downscale(data, base, maxDim); err != nil {
			return Image{}, err
		}
	}
	return Image{Name: base, MIMEType: mt, Data: data}, nil
}

func loadOne(path string, maxDim int) (Image, error) {
	mt, err := errors.ImageMIMEType(path)
	if err != nil {
		return Image{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Image{}, errors.New(errors.ErrCodeFileNotFound, "image not found: %s", path)
		}
		return Image{}, errors.Wrap(errors.ErrCodeInvalidImage, err, "read %s", path)
	}
	if maxDim > 0 {
		if data, err = downscale(data, path, maxDim); err != nil {
			return Image{}, err
		}
	}
	return Image{Name: filepath.Base(path), Path: path, MIMEType: mt, Data: data}, nil
}

func downscale(data []byte, path string, maxDim int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", filepath.Base(path))
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", filepath.Base(path))
	}
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "format of %s", filepath.Base(path))
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxDim, maxDim, imaging.Lanczos), format, imaging.JPEGQuality(90)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "encode %s", filepath.Base(path))
	}
	return buf.Bytes(), nil
}
