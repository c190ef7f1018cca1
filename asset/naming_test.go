package asset_test

import (
	"path/filepath"
	"testing"

	. "github.com/imrenagi/go-product-images/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDestination(t *testing.T) {
	root := filepath.Join("/var", "images")

	t.Run("destination is {id}_{basename} inside the root", func(t *testing.T) {
		got, err := ResolveDestination(root, 1, "/tmp/src/x.png")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "1_x.png"), got)
	})

	t.Run("basename keeps case, spaces and missing extensions", func(t *testing.T) {
		got, err := ResolveDestination(root, 15, "/tmp/src/Source Image With Space.PNG")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "15_Source Image With Space.PNG"), got)

		got, err = ResolveDestination(root, 2, "/tmp/src/source_image_no_ext")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "2_source_image_no_ext"), got)
	})

	t.Run("identifier is written in decimal without padding", func(t *testing.T) {
		got, err := ResolveDestination(root, 0, "a.png")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "0_a.png"), got)

		got, err = ResolveDestination(root, 1000, "a.png")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "1000_a.png"), got)
	})

	t.Run("trailing separators are ignored", func(t *testing.T) {
		got, err := ResolveDestination(root, 3, "/tmp/src/photo.jpg/")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "3_photo.jpg"), got)
	})

	t.Run("sources without a name component are rejected", func(t *testing.T) {
		for _, source := range []string{"", "/", "///", ".", "..", "/tmp/src/.png", ".hidden", "/tmp/.."} {
			got, err := ResolveDestination(root, 4, source)
			assert.ErrorIs(t, err, ErrMalformedName, "source %q", source)
			assert.Empty(t, got, "source %q", source)
		}
	})

	t.Run("same inputs give the same destination", func(t *testing.T) {
		a, err := ResolveDestination(root, 9, "/tmp/a/b.gif")
		require.NoError(t, err)
		b, err := ResolveDestination(root, 9, "/tmp/a/b.gif")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "malformed_name", Outcome(ErrMalformedName))
	assert.Equal(t, "delete_failed", Outcome(ErrDeleteFailed))
}
