package prompt

import (
	"testing"

	"github.com/marinsell/onwater-studio/models"
	"github.com/stretchr/testify/assert"
)

func validParams() models.SceneParams {
	return models.SceneParams{
		Location:    "Lake Travis near the dam",
		Mode:        "cruising",
		Mood:        "golden-hour",
		Lens:        "wide-angle",
		AspectRatio: "16:9",
		Emphasis:    []string{"gleaming gelcoat", "family aboard"},
	}
}

func TestValidateParams(t *testing.T) {
	assert.NoError(t, ValidateParams(validParams()))

	t.Run("UnknownMode", func(t *testing.T) {
		p := validParams()
		p.Mode = "flying"
		err := ValidateParams(p)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "mode")
	})

	t.Run("UnknownMood", func(t *testing.T) {
		p := validParams()
		p.Mood = "neon"
		assert.Error(t, ValidateParams(p))
	})

	t.Run("UnknownLens", func(t *testing.T) {
		p := validParams()
		p.Lens = "fisheye"
		assert.Error(t, ValidateParams(p))
	})

	t.Run("UnknownAspectRatio", func(t *testing.T) {
		p := validParams()
		p.AspectRatio = "21:9"
		err := ValidateParams(p)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "aspectRatio")
	})

	t.Run("EmptyValuesRejected", func(t *testing.T) {
		assert.Error(t, ValidateParams(models.SceneParams{}))
	})
}

func TestBuildScenePrompt(t *testing.T) {
	p := validParams()
	got := BuildScenePrompt(p)

	assert.Contains(t, got, "Lake Travis near the dam")
	assert.Contains(t, got, "easy cruise")
	assert.Contains(t, got, "golden-hour light")
	assert.Contains(t, got, "wide-angle shot")
	assert.Contains(t, got, "16:9 aspect ratio")
	assert.Contains(t, got, "gleaming gelcoat; family aboard")
	assert.Contains(t, got, "Keep the exact boat")
	assert.Contains(t, got, DefaultNegativePrompt)
}

func TestBuildScenePromptDefaultsLocation(t *testing.T) {
	p := validParams()
	p.Location = "   "
	got := BuildScenePrompt(p)
	assert.Contains(t, got, "open coastal water")
}

func TestBuildScenePromptSkipsBlankEmphasis(t *testing.T) {
	p := validParams()
	p.Emphasis = []string{"  ", ""}
	got := BuildScenePrompt(p)
	assert.NotContains(t, got, "Emphasise:")
}

func TestAspectRatioSize(t *testing.T) {
	assert.Equal(t, "1792x1024", AspectRatioSize("16:9"))
	assert.Equal(t, "1792x1024", AspectRatioSize("4:3"))
	assert.Equal(t, "1024x1792", AspectRatioSize("9:16"))
	assert.Equal(t, "1024x1792", AspectRatioSize("3:4"))
	assert.Equal(t, "1024x1024", AspectRatioSize("1:1"))
	assert.Equal(t, "1024x1024", AspectRatioSize("weird"))
}
