package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/driftchat/realtime/pkg/config"
	"github.com/driftchat/realtime/pkg/database"
	"github.com/driftchat/realtime/pkg/log"
	"github.com/driftchat/realtime/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Database  database.Config
	JWT       JWTConfig
	Upload    UploadConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Duration time.Duration
}

type UploadConfig struct {
	Local       storage.LocalConfig `mapstructure:",squash"`
	MaxFileSize int64               `mapstructure:"max_file_size"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "realtime.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("jwt.issuer", "driftchat")
	v.SetDefault("jwt.duration", "24h")
	v.SetDefault("upload.base_path", "./uploads")
	v.SetDefault("upload.base_url", "http://localhost:8080/uploads")
	v.SetDefault("upload.max_file_size", 50*1024*1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "realtime")

	// Environment overrides
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.db_name", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("upload.base_path", "UPLOAD_BASE_PATH")
	v.BindEnv("upload.base_url", "UPLOAD_BASE_URL")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.JWT.Duration = parseDuration(v, "jwt.duration", 24*time.Hour)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}
