package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 32 << 20

// extensions accepted for library listing and for uploads whose content cannot
// be sniffed.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff", ".tga"}

// SourceImage is a decoded upload. Native is the pixel size of the decoded
// image; the displayed size is supplied by the caller at interaction time.
type SourceImage struct {
	name     string
	img      image.Image
	original RasterAsset
}

func (s *SourceImage) Name() string { return s.name }

func (s *SourceImage) Image() image.Image { return s.img }

func (s *SourceImage) Native() Size {
	if s == nil || s.img == nil {
		return Size{}
	}
	b := s.img.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Original is the upload as it was received.
func (s *SourceImage) Original() RasterAsset { return s.original }

func (s *SourceImage) Ready() bool {
	return s != nil && s.img != nil
}

// DecodeSource reads an upload and decodes it with EXIF orientation applied.
// Only basic type acceptance is done on the content.
func DecodeSource(ctx context.Context, r io.Reader, name string) (*SourceImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", name, err)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("upload %s exceeds %d bytes", name, maxUploadBytes)
	}
	if !acceptedImage(data, name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, name)
	}

	img, err := decodeOriented(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	original, err := NewRasterAsset(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	log.Ctx(ctx).Debug().
		Str("filename", name).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("decoded source image")
	return &SourceImage{name: name, img: img, original: original}, nil
}

// extensions accepted without a sniffable signature: TGA has no magic number
// and content sniffing does not know TIFF.
var unsniffedExtensions = []string{".tga", ".tif", ".tiff"}

func acceptedImage(data []byte, name string) bool {
	if strings.HasPrefix(http.DetectContentType(data), "image/") {
		return true
	}
	return slices.Contains(unsniffedExtensions, strings.ToLower(filepath.Ext(name)))
}

func hasImageExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type FileInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	URL        string    `json:"url"`
	Image      ImageInfo `json:"image"`
}

type Directory struct {
	Name  string     `json:"name"`
	Files []FileInfo `json:"files"`
}

// walkImages lists the images below rootPath, skipping the render output directory.
func walkImages(ctx context.Context, rootPath string) (Directory, error) {
	var files []FileInfo

	if err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && d.Name() == outputDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasImageExt(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}
		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		files = append(files, FileInfo{
			Name:       filepath.ToSlash(relPath),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	}); err != nil {
		return Directory{}, err
	}

	for i := range files {
		w, h, err := readImageDimensions(filepath.Join(rootPath, files[i].Name))
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("filename", files[i].Name).Msg("cannot read image dimensions")
			continue
		}
		files[i].Image = ImageInfo{
			Width:  w,
			Height: h,
		}
	}

	return Directory{
		Name:  filepath.Base(rootPath),
		Files: files,
	}, nil
}

func readImageDimensions(filePath string) (width, height int, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cfg, _, err := decodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// openLibraryFile resolves name below root, refusing paths that escape it.
func openLibraryFile(root, name string) (*os.File, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	path := filepath.Join(root, clean)
	if !hasImageExt(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	return f, nil
}
