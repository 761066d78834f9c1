package player

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the runtime-tunable knobs the player core reads from
// outside its own state machine (§9.1, §10): buffer sizing, the amount of
// lookahead required before playback starts, crossfade duration, and
// software volume. It is loaded once at startup and treated as read-only
// by the PCB for the remainder of the process's life.
type Config struct {
	Buffer struct {
		Chunks             int `mapstructure:"chunks"`
		BufferedBeforePlay int `mapstructure:"buffered_before_play_percent"`
	} `mapstructure:"buffer"`

	Playback struct {
		CrossFadeSeconds float64 `mapstructure:"crossfade_seconds"`
		SoftwareVolume   int     `mapstructure:"software_volume"`
	} `mapstructure:"playback"`

	Log struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`
}

// CrossFadeDuration returns the configured crossfade length as a Duration.
func (c Config) CrossFadeDuration() time.Duration {
	return time.Duration(c.Playback.CrossFadeSeconds * float64(time.Second))
}

// LoadConfig reads configuration from configPath, or, when configPath is
// empty, from soundcore.toml in the working directory or /etc/soundcore,
// plus environment variables prefixed SOUNDCORE_, falling back to defaults
// for anything unset. It follows the same
// viper-based layering the rest of this module's corpus uses for desktop
// and daemon configuration.
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("soundcore")
	v.SetConfigType("toml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/soundcore")
	}

	v.SetEnvPrefix("SOUNDCORE")
	v.AutomaticEnv()

	setConfigDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("buffer.chunks", 1200)
	v.SetDefault("buffer.buffered_before_play_percent", 10)
	v.SetDefault("playback.crossfade_seconds", 0.0)
	v.SetDefault("playback.software_volume", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)
}
