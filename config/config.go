// Ininicializing common application configuration
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type EditorConfig struct {
	MaxUploadBytes int64   `mapstructure:"max_upload_bytes"`
	DownloadName   string  `mapstructure:"download_name"`
	FontsDir       string  `mapstructure:"fonts_dir"`
	JitterMax      float64 `mapstructure:"jitter_max"`
	JitterSeed     uint64  `mapstructure:"jitter_seed"`
	BannerMaxSize  int     `mapstructure:"banner_max_size"`
	BannerMargin   float64 `mapstructure:"banner_margin"`

	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	MaxSessions     int           `mapstructure:"max_sessions"`
	MaxImagePixels  int64         `mapstructure:"max_image_pixels"`
	AllowPrivateURL bool          `mapstructure:"allow_private_urls"`
}

type CatalogConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvPrefix("MEME")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return viperInstance, nil
		}
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("editor.max_upload_bytes", 5*1024*1024)
	v.SetDefault("editor.download_name", "funky-meme.png")
	v.SetDefault("editor.fonts_dir", "")
	v.SetDefault("editor.jitter_max", 0.05)
	v.SetDefault("editor.jitter_seed", 0)
	v.SetDefault("editor.banner_max_size", 500)
	v.SetDefault("editor.banner_margin", 10)
	v.SetDefault("editor.session_ttl", 30*time.Minute)
	v.SetDefault("editor.janitor_interval", time.Minute)
	v.SetDefault("editor.max_sessions", 1000)
	v.SetDefault("editor.max_image_pixels", 40_000_000)
	v.SetDefault("editor.allow_private_urls", false)

	v.SetDefault("catalog.url", "https://api.imgflip.com/get_memes")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.cache_ttl", 15*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "meme-exports")
	v.SetDefault("kafka.group_id", "meme-export-archiver")

	v.SetDefault("storage.base_path", "./storage")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
