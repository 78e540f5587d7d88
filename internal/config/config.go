package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every environment-driven setting. Values come from the
// process environment; main loads a .env file beforehand if one exists.
type Config struct {
	Addr             string `mapstructure:"ADDR"`
	DevLog           bool   `mapstructure:"DEV_LOG"`
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	ProfileImagesDir string `mapstructure:"PROFILE_IMAGES_DIR"`
	QuestionGraceSec int    `mapstructure:"QUESTION_GRACE_SEC"`
}

// QuestionGrace is the delay between starting a question and its advertised
// start time, giving clients room to show a countdown.
func (c Config) QuestionGrace() time.Duration {
	return time.Duration(c.QuestionGraceSec) * time.Second
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// AutomaticEnv only exposes keys viper already knows about, so every
	// key needs a default.
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("DEV_LOG", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PROFILE_IMAGES_DIR", "profile_images")
	v.SetDefault("QUESTION_GRACE_SEC", 5)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.QuestionGraceSec < 0 {
		return Config{}, fmt.Errorf("QUESTION_GRACE_SEC must not be negative: %d", cfg.QuestionGraceSec)
	}
	return cfg, nil
}
