package config

import (
	"time"

	pkgconfig "github.com/alexredboyPRO/Synkim/pkg/config"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Sync      SyncConfig
	Rooms     RoomsConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Watcher   WatcherConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// SyncConfig holds the reconciliation knobs shared by every client
// engine. Thresholds are durations compared against position drift.
type SyncConfig struct {
	DriftThreshold     time.Duration `mapstructure:"drift_threshold"`
	SyncDriftThreshold time.Duration `mapstructure:"sync_drift_threshold"`
	SyncCooldown       time.Duration `mapstructure:"sync_cooldown"`
	SettleDelay        time.Duration `mapstructure:"settle_delay"`
	HeartbeatInterval  time.Duration `mapstructure:"heartbeat_interval"`
}

type RoomsConfig struct {
	Store        string        // "memory" or "redis"
	DefaultMedia string        `mapstructure:"default_media"`
	GCInterval   time.Duration `mapstructure:"gc_interval"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	Required bool
	Secret   string
}

type WatcherConfig struct {
	RelayURL string `mapstructure:"relay_url"`
	RoomID   string `mapstructure:"room_id"`
	Token    string
	Media    string
	Music    MusicConfig
	Lookup   LookupConfig
}

// MusicConfig configures the external music-service now-playing poller.
type MusicConfig struct {
	Enabled  bool
	Endpoint string
	Token    string
	Interval time.Duration
}

// LookupConfig configures the video-search lookup used to turn a track
// description into a loadable media reference.
type LookupConfig struct {
	Endpoint string
	APIKey   string `mapstructure:"api_key"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("sync.drift_threshold", "3s")
	v.SetDefault("sync.sync_drift_threshold", "6s")
	v.SetDefault("sync.sync_cooldown", "6s")
	v.SetDefault("sync.settle_delay", "600ms")
	v.SetDefault("sync.heartbeat_interval", "12s")
	v.SetDefault("rooms.store", "memory")
	v.SetDefault("rooms.default_media", "dQw4w9WgXcQ")
	v.SetDefault("rooms.gc_interval", "2m")
	v.SetDefault("rooms.idle_timeout", "30m")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "synkim:room:")
	v.SetDefault("redis.ttl", "1h")
	v.SetDefault("auth.required", false)
	v.SetDefault("auth.secret", "")
	v.SetDefault("watcher.relay_url", "ws://localhost:3001/ws")
	v.SetDefault("watcher.room_id", "default")
	v.SetDefault("watcher.music.enabled", false)
	v.SetDefault("watcher.music.interval", "15s")
	v.SetDefault("watcher.lookup.endpoint", "https://www.googleapis.com/youtube/v3/search")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("rooms.store", "ROOMS_STORE")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("watcher.relay_url", "RELAY_URL")
	v.BindEnv("watcher.room_id", "ROOM_ID")
	v.BindEnv("watcher.token", "WATCHER_TOKEN")
	v.BindEnv("watcher.music.token", "MUSIC_TOKEN")
	v.BindEnv("watcher.lookup.api_key", "YOUTUBE_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Sync.DriftThreshold = pkgconfig.Duration(v, "sync.drift_threshold", 3*time.Second)
	cfg.Sync.SyncDriftThreshold = pkgconfig.Duration(v, "sync.sync_drift_threshold", 6*time.Second)
	cfg.Sync.SyncCooldown = pkgconfig.Duration(v, "sync.sync_cooldown", 6*time.Second)
	cfg.Sync.SettleDelay = pkgconfig.Duration(v, "sync.settle_delay", 600*time.Millisecond)
	cfg.Sync.HeartbeatInterval = pkgconfig.Duration(v, "sync.heartbeat_interval", 12*time.Second)
	cfg.Rooms.GCInterval = pkgconfig.Duration(v, "rooms.gc_interval", 2*time.Minute)
	cfg.Rooms.IdleTimeout = pkgconfig.Duration(v, "rooms.idle_timeout", 30*time.Minute)
	cfg.Redis.TTL = pkgconfig.Duration(v, "redis.ttl", time.Hour)
	cfg.Watcher.Music.Interval = pkgconfig.Duration(v, "watcher.music.interval", 15*time.Second)

	return &cfg, nil
}
