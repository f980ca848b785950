package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Chrome    ChromeConfig    `yaml:"chrome"`
	Generator GeneratorConfig `yaml:"generator"`
	Retention RetentionConfig `yaml:"retention"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	Host         string `yaml:"host"`
	Mode         string `yaml:"mode"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	// Driver is mysql or sqlite.
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Charset    string `yaml:"charset"`
	SQLitePath string `yaml:"sqlite_path"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireTime int    `yaml:"expire_time"`
}

type ChromeConfig struct {
	HeadlessMode   bool `yaml:"headless"`
	PollIntervalMs int  `yaml:"poll_interval_ms"`
	// ReapIntervalSec is how often dead recording browsers are swept.
	ReapIntervalSec int `yaml:"reap_interval_sec"`
}

// GeneratorConfig holds the waits written into Selenium scripts, in seconds.
type GeneratorConfig struct {
	WaitTimeout     int    `yaml:"wait_timeout"`
	NavigateDelay   int    `yaml:"navigate_delay"`
	StepDelay       int    `yaml:"step_delay"`
	DefaultFileName string `yaml:"default_file_name"`
}

type RetentionConfig struct {
	Cron string `yaml:"cron"`
	Days int    `yaml:"days"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Host:         "0.0.0.0",
			Mode:         "debug",
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Database: DatabaseConfig{
			Driver:     "mysql",
			Host:       "127.0.0.1",
			Port:       "3306",
			Username:   "root",
			Password:   "root",
			Database:   "sessionrecorder",
			Charset:    "utf8mb4",
			SQLitePath: "sessionrecorder.db",
		},
		JWT: JWTConfig{
			Secret:     "session-recorder-secret-key",
			ExpireTime: 24 * 3600,
		},
		Chrome: ChromeConfig{
			HeadlessMode:    false,
			PollIntervalMs:  100,
			ReapIntervalSec: 30,
		},
		Generator: GeneratorConfig{
			WaitTimeout:     10,
			NavigateDelay:   2,
			StepDelay:       1,
			DefaultFileName: "recorded_session",
		},
		Retention: RetentionConfig{
			Cron: "0 0 3 * * *",
			Days: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE if set, then environment variables.
func LoadConfig() (*Config, error) {
	config := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.Server.Port = getEnv("SERVER_PORT", config.Server.Port)
	config.Server.Host = getEnv("SERVER_HOST", config.Server.Host)
	config.Server.Mode = getEnv("SERVER_MODE", config.Server.Mode)
	config.Server.ReadTimeout = getEnvAsInt("SERVER_READ_TIMEOUT", config.Server.ReadTimeout)
	config.Server.WriteTimeout = getEnvAsInt("SERVER_WRITE_TIMEOUT", config.Server.WriteTimeout)

	config.Database.Driver = getEnv("DB_DRIVER", config.Database.Driver)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnv("DB_PORT", config.Database.Port)
	config.Database.Username = getEnv("DB_USERNAME", config.Database.Username)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.Database = getEnv("DB_NAME", config.Database.Database)
	config.Database.Charset = getEnv("DB_CHARSET", config.Database.Charset)
	config.Database.SQLitePath = getEnv("DB_SQLITE_PATH", config.Database.SQLitePath)

	config.JWT.Secret = getEnv("JWT_SECRET", config.JWT.Secret)
	config.JWT.ExpireTime = getEnvAsInt("JWT_EXPIRE_TIME", config.JWT.ExpireTime)

	config.Chrome.HeadlessMode = getEnvAsBool("CHROME_HEADLESS", config.Chrome.HeadlessMode)
	config.Chrome.PollIntervalMs = getEnvAsInt("CHROME_POLL_INTERVAL_MS", config.Chrome.PollIntervalMs)
	config.Chrome.ReapIntervalSec = getEnvAsInt("CHROME_REAP_INTERVAL_SEC", config.Chrome.ReapIntervalSec)

	config.Generator.WaitTimeout = getEnvAsInt("GENERATOR_WAIT_TIMEOUT", config.Generator.WaitTimeout)
	config.Generator.NavigateDelay = getEnvAsInt("GENERATOR_NAVIGATE_DELAY", config.Generator.NavigateDelay)
	config.Generator.StepDelay = getEnvAsInt("GENERATOR_STEP_DELAY", config.Generator.StepDelay)
	config.Generator.DefaultFileName = getEnv("GENERATOR_FILE_NAME", config.Generator.DefaultFileName)

	config.Retention.Cron = getEnv("RETENTION_CRON", config.Retention.Cron)
	config.Retention.Days = getEnvAsInt("RETENTION_DAYS", config.Retention.Days)

	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)

	if config.Database.Driver != "mysql" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	return config, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.Charset,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
