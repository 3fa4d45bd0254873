package tcgp

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	gameconfig "github.com/toto789520/TCGP-bis/tcgp/config"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns a config preloaded with the stock game tunables so a
// partial TOML file only has to override what it changes.
func DefaultConfig() Config {
	return Config{
		Game:    DefaultGameConfig(),
		Gateway: DefaultGatewayConfig(),
	}
}

type Config struct {
	Log         LogConfig     `toml:"log"`
	DB          DBConfig      `toml:"db"`
	Redis       RedisConfig   `toml:"redis"`
	Catalog     CatalogConfig `toml:"catalog"`
	Game        GameConfig    `toml:"game"`
	Gateway     GatewayConfig `toml:"gateway"`
	Backend     BackendConfig `toml:"backend"`
	Maintenance bool          `toml:"maintenance"`
}

type LogConfig struct {
	Level  slog.Level `toml:"level"`
	Prefix string     `toml:"prefix"`
}

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// CatalogConfig selects where generation bucket files come from. Kind is
// "http" or "spaces".
type CatalogConfig struct {
	Kind    string `toml:"kind"`
	BaseURL string `toml:"base_url"`

	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	DataRoot string `toml:"data_root"`
}

type BackendConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimit      int      `toml:"rate_limit"`
	RateWindowSec  int      `toml:"rate_window_sec"`
}

type GameConfig struct {
	Generations        []Generation `toml:"generations"`
	PacksPerCooldown   int          `toml:"packs_per_cooldown"`
	CooldownMinutes    int          `toml:"cooldown_minutes"`
	VIPCooldownMinutes int          `toml:"vip_cooldown_minutes"`
	PointsPerCard      int          `toml:"points_per_card"`
	PointsForBonusPack int          `toml:"points_for_bonus_pack"`
	VIPPointsForBonus  int          `toml:"vip_points_for_bonus_pack"`
	FiveCardChance     float64      `toml:"five_card_chance"`
	DuplicateCap       int          `toml:"duplicate_cap"`
	DrawAttemptCap     int          `toml:"draw_attempt_cap"`
}

type Generation struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// GatewayConfig tunes the write gateway. Intervals are in seconds.
type GatewayConfig struct {
	MinWriteIntervalSec int `toml:"min_write_interval_sec"`
	RevealDebounceSec   int `toml:"reveal_debounce_sec"`
	BackoffBaseSec      int `toml:"backoff_base_sec"`
	BackoffCapSec       int `toml:"backoff_cap_sec"`
	MaxAttempts         int `toml:"max_attempts"`
}

// MinWriteInterval and friends convert the second counts to durations.
func (g GatewayConfig) MinWriteInterval() time.Duration {
	return time.Duration(g.MinWriteIntervalSec) * time.Second
}

func (g GatewayConfig) RevealDebounce() time.Duration {
	return time.Duration(g.RevealDebounceSec) * time.Second
}

func (g GatewayConfig) BackoffBase() time.Duration {
	return time.Duration(g.BackoffBaseSec) * time.Second
}

func (g GatewayConfig) BackoffCap() time.Duration {
	return time.Duration(g.BackoffCapSec) * time.Second
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		Generations: []Generation{
			{ID: "gen1", Name: "Gen 1 - Kanto"},
			{ID: "gen2", Name: "Gen 2 - Johto"},
			{ID: "gen3", Name: "Gen 3 - Hoenn"},
			{ID: "gen4", Name: "Gen 4 - Sinnoh"},
			{ID: "gen5", Name: "Gen 5 - Unys"},
			{ID: "gen6", Name: "Gen 6 - Kalos"},
			{ID: "gen7", Name: "Gen 7 - Alola"},
			{ID: "special_bryan", Name: "Pack Spécial Bryan"},
		},
		PacksPerCooldown:   gameconfig.PacksPerCooldown,
		CooldownMinutes:    gameconfig.CooldownMinutes,
		VIPCooldownMinutes: gameconfig.VIPCooldownMinutes,
		PointsPerCard:      gameconfig.PointsPerCard,
		PointsForBonusPack: gameconfig.PointsForBonusPack,
		VIPPointsForBonus:  gameconfig.VIPPointsForBonus,
		FiveCardChance:     gameconfig.FiveCardChance,
		DuplicateCap:       gameconfig.DuplicateCap,
		DrawAttemptCap:     gameconfig.DrawAttemptCap,
	}
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		MinWriteIntervalSec: int(gameconfig.MinWriteInterval / time.Second),
		RevealDebounceSec:   int(gameconfig.RevealDebounce / time.Second),
		BackoffBaseSec:      int(gameconfig.QueueBackoffBase / time.Second),
		BackoffCapSec:       int(gameconfig.QueueBackoffCap / time.Second),
		MaxAttempts:         gameconfig.QueueMaxAttempts,
	}
}

// CooldownWindow returns the regeneration window for a role.
func (g GameConfig) CooldownWindow(vip bool) time.Duration {
	if vip {
		return time.Duration(g.VIPCooldownMinutes) * time.Minute
	}
	return time.Duration(g.CooldownMinutes) * time.Minute
}

// PointsThreshold returns the bonus-pack threshold for a role.
func (g GameConfig) PointsThreshold(vip bool) int {
	if vip {
		return g.VIPPointsForBonus
	}
	return g.PointsForBonusPack
}

// KnownGeneration reports whether id is a configured generation.
func (g GameConfig) KnownGeneration(id string) bool {
	for _, gen := range g.Generations {
		if gen.ID == id {
			return true
		}
	}
	return false
}
