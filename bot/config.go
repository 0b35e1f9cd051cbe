package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/core/cache"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/quiz/store"
)

const (
	// StorageMemory keeps sessions in process memory.
	StorageMemory = "memory"
	// StoragePostgres keeps sessions in the quiz_sessions table.
	StoragePostgres = "postgres"
	// StorageRedis keeps sessions as JSON values in Redis.
	StorageRedis = "redis"
)

// StorageConfig selects the session backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// QuizConfig holds quiz content and session settings.
type QuizConfig struct {
	// QuestionsFile is a YAML question set; empty uses the bundled questions.
	QuestionsFile string `yaml:"questions_file" envconfig:"QUIZ_QUESTIONS_FILE"`
	// SessionTTLMinutes expires idle Redis sessions; 0 keeps them forever.
	SessionTTLMinutes int    `yaml:"session_ttl_minutes" envconfig:"QUIZ_SESSION_TTL_MINUTES"`
	KeyPrefix         string `yaml:"key_prefix" envconfig:"QUIZ_KEY_PREFIX"`
}

// SessionTTL returns the configured TTL as a duration.
func (q QuizConfig) SessionTTL() time.Duration {
	return time.Duration(q.SessionTTLMinutes) * time.Minute
}

// Config is the full quizbot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
	Redis    cache.Config        `yaml:"redis"`
	Quiz     QuizConfig          `yaml:"quiz"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the bot sections on top of the core ones and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if driver == "" {
		driver = StorageMemory
	}
	switch driver {
	case StorageMemory:
	case StoragePostgres:
		if err := c.Database.Normalize(); err != nil {
			return err
		}
	case StorageRedis:
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr or redis.url is required when storage.driver is 'redis'")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: memory, postgres, redis", c.Storage.Driver)
	}
	c.Storage.Driver = driver

	if c.Quiz.SessionTTLMinutes < 0 {
		return fmt.Errorf("quiz.session_ttl_minutes must be >= 0")
	}
	if strings.TrimSpace(c.Quiz.KeyPrefix) == "" {
		c.Quiz.KeyPrefix = store.DefaultKeyPrefix
	}
	return nil
}

// DatabaseConfig returns the database section when the postgres backend is selected.
func (c *Config) DatabaseConfig() *coredatabase.Config {
	if c.Storage.Driver != StoragePostgres {
		return nil
	}
	return &c.Database
}

// RedisConfig returns the redis section when the redis backend is selected.
func (c *Config) RedisConfig() *cache.Config {
	if c.Storage.Driver != StorageRedis {
		return nil
	}
	return &c.Redis
}
