package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "en", d.Language)
	assert.Equal(t, 4, d.Workers)
	assert.Equal(t, 10*time.Second, d.InvokeTimeout)
}

func TestLoadAppliesFlagOverrides(t *testing.T) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Bind(v, fs)

	err := fs.Parse([]string{"--workers=8", "--language=de", "--dev"})
	assert.NoError(t, err)

	c := Load(v)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, "de", c.Language)
	assert.True(t, c.Development)
	assert.Equal(t, ":8080", c.ListenAddr) // unset flag keeps its own default
}

func TestLoadFallsBackToDefaultsWhenNothingSet(t *testing.T) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Bind(v, fs)
	assert.NoError(t, fs.Parse(nil))

	c := Load(v)
	assert.Equal(t, Defaults().CacheDir, c.CacheDir)
	assert.Equal(t, Defaults().BodyCacheSize, c.BodyCacheSize)
}
