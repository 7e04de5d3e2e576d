package stacker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigYaml(t *testing.T) {
	cfg := NewConfig()
	cfg.Selector = "rgb"
	cfg.LastImageBias = 2.5
	cfg.Settings.SetDepthScale(12.25)

	got, err := newConfigFromYaml([]byte(cfg.AsYaml()))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	got, err = newConfigFromYaml([]byte("selector: rgb\nsettings:\n  anaglyph:\n    depthscale: 30\n"))
	require.NoError(t, err)
	assert.True(t, got.PerChannel())
	assert.Equal(t, 30.0, got.Settings.Anaglyph.DepthScale)
	assert.Equal(t, DefaultSettings().Stacking, got.Settings.Stacking, "missing keys keep their defaults")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())

	tests := []struct {
		name   string
		change func(*Config)
	}{
		{"selector", func(c *Config) { c.Selector = "sharpest" }},
		{"blurrer", func(c *Config) { c.Blurrer = "motion" }},
		{"eye sign", func(c *Config) { c.LeftEyeSign = 0 }},
		{"contrast levels", func(c *Config) { c.ContrastLevels = MaxContrastLevels + 1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.change(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigStrategies(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1, cfg.NumContrastLevels())
	cfg.ContrastLevels = 0
	assert.Equal(t, 1, cfg.NumContrastLevels())

	assert.Equal(t, -1.0, cfg.LeftEyeSign)
	assert.Equal(t, 1.0, cfg.RightEyeSign())

	for _, name := range []string{"", "gaussian", "bild", "box"} {
		cfg.Blurrer = name
		assert.NotNil(t, cfg.GetBlurrer())
	}
	for _, name := range []string{"", "luma", "rgb"} {
		cfg.Selector = name
		assert.NotNil(t, cfg.GetSelector())
	}
}
