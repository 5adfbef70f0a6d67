package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobs(t *testing.T) {
	jobs, err := ParseJobs([]byte(`
{"type":"crop","filename":"a.png","region":{"x":1,"y":2,"width":3,"height":4},"display":{"width":10,"height":10}}

{"type":"edit","filename":"b.png","adjustments":{"preset":"Sepia","rotation":90}}
`))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	require.NotNil(t, jobs[0].Crop)
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, jobs[0].Crop.Region)

	require.NotNil(t, jobs[1].Edit)
	want := NeutralAdjustments()
	want.Preset = PresetSepia
	want.Rotation = 90
	assert.Equal(t, want, jobs[1].Edit.Adjustments)

	_, err = ParseJobs([]byte(`{"type":"pick","filename":"a.png"}`))
	assert.ErrorContains(t, err, "line 1")
}

func newTestLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), encodePNG(t, gradient(100, 80)), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0644))
	return dir
}

func TestJobExecutor(t *testing.T) {
	dir := newTestLibrary(t)
	out := filepath.Join(dir, outputDirName)
	exec := JobExecutor{
		BaseDir:    dir,
		OutputDir:  out,
		Rasterizer: NewImagingCropper(pngEncoder),
		Compositor: NewCompositor(pngEncoder),
	}

	crop := CropJob{
		Filename: "photo.png",
		Region:   Rect{X: 10, Y: 10, Width: 50, Height: 40},
		Display:  Size{Width: 50, Height: 40},
	}
	edit := EditJob{Filename: "photo.png", Adjustments: NeutralAdjustments()}
	edit.Adjustments.Preset = PresetBW

	require.NoError(t, exec.Exec(context.Background(), []Job{{Crop: &crop}, {Edit: &edit}}))

	native := ToNativeRect(crop.Region, crop.Display, Size{Width: 100, Height: 80})
	w, h, err := readImageDimensions(filepath.Join(out, "photo-"+native.ID()+".png"))
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)

	w, h, err = readImageDimensions(filepath.Join(out, "photo-"+edit.Adjustments.ID()+".png"))
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)

	dirInfo, err := walkImages(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, dirInfo.Files, 1)
	assert.Equal(t, "photo.png", dirInfo.Files[0].Name)
	assert.Equal(t, ImageInfo{Width: 100, Height: 80}, dirInfo.Files[0].Image)
}

func TestJobExecutorErrors(t *testing.T) {
	dir := newTestLibrary(t)
	exec := JobExecutor{
		BaseDir:    dir,
		OutputDir:  filepath.Join(dir, outputDirName),
		Rasterizer: NewImagingCropper(pngEncoder),
		Compositor: NewCompositor(pngEncoder),
	}

	err := exec.Exec(context.Background(), []Job{{Crop: &CropJob{Filename: "photo.png", Region: Rect{Width: 10, Height: 10}}}})
	assert.ErrorIs(t, err, ErrInputNotReady)

	err = exec.Exec(context.Background(), []Job{{Crop: &CropJob{Filename: "missing.png", Display: Size{Width: 1, Height: 1}}}})
	assert.Error(t, err)

	assert.NoError(t, exec.Exec(context.Background(), nil))
}

func TestOpenLibraryFileStaysInRoot(t *testing.T) {
	dir := newTestLibrary(t)

	f, err := openLibraryFile(dir, "../../photo.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo.png"), f.Name())
	f.Close()

	_, err = openLibraryFile(dir, "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
