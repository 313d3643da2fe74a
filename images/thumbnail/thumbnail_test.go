package thumbnail

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/qolzam/imagehost/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, w, h int, f imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, f))
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		format string
		ext    string
	}{
		{"png", encode(t, 40, 20, imaging.PNG), "png", ".png"},
		{"jpeg", encode(t, 40, 20, imaging.JPEG), "jpeg", ".jpg"},
		{"gif", encode(t, 40, 20, imaging.GIF), "gif", ".gif"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := Inspect(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.format, info.Format.Name)
			assert.Equal(t, tc.ext, info.Format.Ext)
			assert.Equal(t, 40, info.Width)
			assert.Equal(t, 20, info.Height)
		})
	}

	t.Run("rejects non images", func(t *testing.T) {
		_, err := Inspect([]byte("GIF? no, plain text"))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("rejects other encodings", func(t *testing.T) {
		_, err := Inspect(encode(t, 4, 4, imaging.BMP))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestImagingRenderer(t *testing.T) {
	r := NewImagingRenderer()

	t.Run("scales to height keeping aspect ratio", func(t *testing.T) {
		out, err := r.Render(testutil.PNGImage(t, 800, 400), 200)
		require.NoError(t, err)
		size := testutil.DecodedSize(t, out)
		assert.Equal(t, 200, size.Y)
		assert.Equal(t, 400, size.X)

		info, err := Inspect(out)
		require.NoError(t, err)
		assert.Equal(t, "png", info.Format.Name)
	})

	t.Run("does not upscale", func(t *testing.T) {
		out, err := r.Render(testutil.PNGImage(t, 100, 50), 400)
		require.NoError(t, err)
		assert.Equal(t, 50, testutil.DecodedSize(t, out).Y)
	})

	t.Run("keeps jpeg as jpeg", func(t *testing.T) {
		out, err := r.Render(encode(t, 300, 600, imaging.JPEG), 200)
		require.NoError(t, err)
		info, err := Inspect(out)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", info.Format.Name)
		assert.Equal(t, 100, info.Width)
	})

	t.Run("rejects zero height", func(t *testing.T) {
		_, err := r.Render(testutil.PNGImage(t, 10, 10), 0)
		require.Error(t, err)
	})
}
