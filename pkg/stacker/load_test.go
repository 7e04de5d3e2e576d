package stacker

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	img0, img1 := noisyRGBA(8, 6, 1), noisyRGBA(8, 6, 2)
	require.NoError(t, WritePNG(img1, filepath.Join(dir, "sub", "02.png")))
	require.NoError(t, WritePNG(img0, filepath.Join(dir, "01.png")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultSettingsFilename),
		[]byte(`{"anaglyphSettings": {"depthScale": 12}}`), 0644))

	p := NewPipeline(NewConfig())
	require.NoError(t, p.LoadFilesAndDirs(dir))

	require.Len(t, p.Images, 2)
	assert.Equal(t, "01.png", p.Images[0].Name)
	assert.Equal(t, img0.Pix, p.Images[0].Pix)
	assert.Equal(t, "02.png", p.Images[1].Filename())
	assert.Equal(t, 12.0, p.Config.Settings.Anaglyph.DepthScale)
}

func TestLoadConfigYaml(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("selector: rgb\nlastimagebias: 3\n"), 0644))

	p := NewPipeline(NewConfig())
	require.NoError(t, p.LoadFilesAndDirs(filename))
	assert.Equal(t, "rgb", p.Config.Selector)
	assert.Equal(t, 3.0, p.Config.LastImageBias)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(NewConfig())
	assert.Error(t, p.LoadFilesAndDirs(filepath.Join(dir, "missing.png")))

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0644))
	assert.Error(t, p.LoadFilesAndDirs(bad))

	_, err := LoadStackImage(filepath.Join(dir, "x.xcf"))
	assert.Error(t, err)

	require.NoError(t, WritePNG(noisyRGBA(8, 6, 1), filepath.Join(dir, "a.png")))
	require.NoError(t, WritePNG(noisyRGBA(9, 6, 1), filepath.Join(dir, "b.png")))
	assert.ErrorIs(t, p.LoadFilesAndDirs(dir), ErrInvalidDimensions)
}

func TestOrient(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	marker := color.RGBA{255, 0, 0, 0xFF}
	src.SetRGBA(0, 0, marker)

	assert.Same(t, src, Orient(src, 1))
	assert.Same(t, src, Orient(src, 0))

	up := ToRGBA(Orient(src, 3))
	assert.Equal(t, image.Rect(0, 0, 3, 2), up.Bounds())
	assert.Equal(t, marker, up.RGBAAt(2, 1))

	cw := ToRGBA(Orient(src, 6))
	assert.Equal(t, image.Rect(0, 0, 2, 3), cw.Bounds())
	assert.Equal(t, marker, cw.RGBAAt(1, 0))

	ccw := ToRGBA(Orient(src, 8))
	assert.Equal(t, image.Rect(0, 0, 2, 3), ccw.Bounds())
	assert.Equal(t, marker, ccw.RGBAAt(0, 2))
}
