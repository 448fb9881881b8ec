package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	t.Run("dark terminals get the light variant", func(t *testing.T) {
		assert.Equal(t, "#FF65FE", Hash("dev").Dark)
	})

	t.Run("stable", func(t *testing.T) {
		assert.Equal(t, Hash("build-tests"), Hash("build-tests"))
	})
}

func TestRGB(t *testing.T) {
	for _, tc := range []struct {
		hsl hsl
		rgb rgb
	}{
		{hsl{0, 0, 0}, rgb{0, 0, 0}},
		{hsl{0, 1.0, 1.0}, rgb{255, 255, 255}},
	} {
		assert.Equal(t, tc.rgb, tc.hsl.rgb(), "rgb(%+v)", tc.hsl)
	}
}

func TestHex(t *testing.T) {
	for _, tc := range []struct {
		rgb rgb
		hex string
	}{
		{rgb{255, 255, 255}, "#FFFFFF"},
		{rgb{255, 0, 0}, "#FF0000"},
		{rgb{0, 255, 255}, "#00FFFF"},
		{rgb{0, 0, 0}, "#000000"},
	} {
		assert.Equal(t, tc.hex, tc.rgb.hex(), "hex(%+v)", tc.rgb)
	}
}
