package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Payment  PaymentConfig  `mapstructure:"payment"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	Development    bool   `mapstructure:"development"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // "gorm" or "pq"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PaymentConfig points at the external payment verification endpoint.
// An empty URL disables the top-up surface entirely.
type PaymentConfig struct {
	VerifierURL string `mapstructure:"verifier_url"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig tunes the arena simulation. StaleTimeout and ReapInterval are
// deliberately configurable: production runs a tighter sweep than development.
type GameConfig struct {
	RoomCapacity        int           `mapstructure:"room_capacity"`
	ArenaSize           float64       `mapstructure:"arena_size"`
	StartingMoney       float64       `mapstructure:"starting_money"`
	InitialLength       int           `mapstructure:"initial_length"`
	StaleTimeout        time.Duration `mapstructure:"stale_timeout"`
	ReapInterval        time.Duration `mapstructure:"reap_interval"`
	LeaderboardInterval time.Duration `mapstructure:"leaderboard_interval"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("game.room_capacity", 80)
	viper.SetDefault("game.arena_size", 4000.0)
	viper.SetDefault("game.starting_money", 1.00)
	viper.SetDefault("game.initial_length", 10)
	viper.SetDefault("game.stale_timeout", "30s")
	viper.SetDefault("game.reap_interval", "10s")
	viper.SetDefault("game.leaderboard_interval", "2s")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
