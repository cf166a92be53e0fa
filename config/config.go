// Package config holds the tunables shared by the host, the bot client and
// the master directory. Values come from defaults, an optional config file,
// SHOOTNRUN_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/automoto/shootnrun-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SHOOTNRUN_SERVER_PORT.
const EnvPrefix = "SHOOTNRUN"

// Vec3 is a config-friendly vector.
type Vec3 struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// Rotation is a config-friendly rotator, degrees.
type Rotation struct {
	Pitch float64 `mapstructure:"pitch"`
	Yaw   float64 `mapstructure:"yaw"`
	Roll  float64 `mapstructure:"roll"`
}

func (r Rotation) Rotator() gamemath.Rotator {
	return gamemath.Rotator{Pitch: r.Pitch, Yaw: r.Yaw, Roll: r.Roll}
}

// ServerConfig contains host session settings
type ServerConfig struct {
	Name       string `mapstructure:"name"`
	Port       int    `mapstructure:"port"`
	TickRate   int    `mapstructure:"tickRate"`
	MaxPlayers int    `mapstructure:"maxPlayers"`
	Version    string `mapstructure:"version"`

	// Dummies is how many host-controlled target characters spawn at start
	Dummies int `mapstructure:"dummies"`

	// Level is a .tmx path; empty means an open arena of ArenaWidth x ArenaHeight
	Level       string  `mapstructure:"level"`
	ArenaWidth  float64 `mapstructure:"arenaWidth"`
	ArenaHeight float64 `mapstructure:"arenaHeight"`
	SpawnHeight float64 `mapstructure:"spawnHeight"`

	// ArenaCeiling bounds projectiles vertically; the floor is at zero
	ArenaCeiling float64 `mapstructure:"arenaCeiling"`

	// Directory registration, disabled when MasterURL is empty
	MasterURL     string `mapstructure:"masterURL"`
	PublicAddress string `mapstructure:"publicAddress"`
	Region        string `mapstructure:"region"`
}

// TickInterval is the fixed simulation step.
func (s ServerConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 20
	}
	return time.Second / time.Duration(s.TickRate)
}

// ClientConfig contains bot client settings
type ClientConfig struct {
	URL            string        `mapstructure:"url"`
	PlayerName     string        `mapstructure:"playerName"`
	TickRate       int           `mapstructure:"tickRate"`
	ResendInterval time.Duration `mapstructure:"resendInterval"`
	PendingLimit   int           `mapstructure:"pendingLimit"`
}

// CombatConfig contains weapon and projectile tuning
type CombatConfig struct {
	// FirePeriod is the spacing between shots while the trigger is held
	FirePeriod time.Duration `mapstructure:"firePeriod"`

	// WeaponKind names the projectile the equipped weapon fires; empty disables equip
	WeaponKind        string   `mapstructure:"weaponKind"`
	WeaponSocket      string   `mapstructure:"weaponSocket"`
	SocketOffset      Vec3     `mapstructure:"socketOffset"`
	WeaponRelLocation Vec3     `mapstructure:"weaponRelLocation"`
	WeaponRelRotation Rotation `mapstructure:"weaponRelRotation"`
	MuzzleOffset      Vec3     `mapstructure:"muzzleOffset"`

	ProjectileSpeed  float64 `mapstructure:"projectileSpeed"`
	ProjectileRadius float64 `mapstructure:"projectileRadius"`
	MaxSubSteps      int     `mapstructure:"maxSubSteps"`

	// Character hit box on the ground plane
	CharacterWidth  float64 `mapstructure:"characterWidth"`
	CharacterHeight float64 `mapstructure:"characterHeight"`
}

// MovementConfig contains planar speeds per speed tier
type MovementConfig struct {
	NormalSpeed float64 `mapstructure:"normalSpeed"`
	SprintSpeed float64 `mapstructure:"sprintSpeed"`
}

// OrientationConfig tunes how observers converge on authoritative orientation
type OrientationConfig struct {
	InterpSpeed   float64 `mapstructure:"interpSpeed"`
	SnapTolerance float64 `mapstructure:"snapTolerance"`
}

// ValidationConfig parameterises command validation on the host
type ValidationConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	MaxPitch float64 `mapstructure:"maxPitch"`
	MaxMove  float64 `mapstructure:"maxMove"`
}

// LogConfig selects log level and console formatting
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// MasterConfig contains session directory settings
type MasterConfig struct {
	Port int           `mapstructure:"port"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// Config is the full configuration tree.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Client      ClientConfig      `mapstructure:"client"`
	Combat      CombatConfig      `mapstructure:"combat"`
	Movement    MovementConfig    `mapstructure:"movement"`
	Orientation OrientationConfig `mapstructure:"orientation"`
	Validation  ValidationConfig  `mapstructure:"validation"`
	Log         LogConfig         `mapstructure:"log"`
	Master      MasterConfig      `mapstructure:"master"`
}

// setDefaults registers every default with viper. Default() reads them back
// so the two can never drift.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "shootnrun")
	v.SetDefault("server.port", 7373)
	v.SetDefault("server.tickRate", 20)
	v.SetDefault("server.maxPlayers", 8)
	v.SetDefault("server.version", "1")
	v.SetDefault("server.dummies", 0)
	v.SetDefault("server.level", "")
	v.SetDefault("server.arenaWidth", 4000.0)
	v.SetDefault("server.arenaHeight", 4000.0)
	v.SetDefault("server.arenaCeiling", 2000.0)
	v.SetDefault("server.spawnHeight", 90.0)
	v.SetDefault("server.masterURL", "")
	v.SetDefault("server.publicAddress", "")
	v.SetDefault("server.region", "")

	v.SetDefault("client.url", "ws://localhost:7373")
	v.SetDefault("client.playerName", "bot")
	v.SetDefault("client.tickRate", 60)
	v.SetDefault("client.resendInterval", "250ms")
	v.SetDefault("client.pendingLimit", 256)

	v.SetDefault("combat.firePeriod", "100ms")
	v.SetDefault("combat.weaponKind", "rifle_round")
	v.SetDefault("combat.weaponSocket", "RightHand")
	v.SetDefault("combat.socketOffset", map[string]any{"x": 0.0, "y": 20.0, "z": 10.0})
	v.SetDefault("combat.weaponRelLocation", map[string]any{"x": 10.0, "y": 0.0, "z": 0.0})
	v.SetDefault("combat.weaponRelRotation", map[string]any{"pitch": 0.0, "yaw": 0.0, "roll": 0.0})
	v.SetDefault("combat.muzzleOffset", map[string]any{"x": 50.0, "y": 0.0, "z": 0.0})
	v.SetDefault("combat.projectileSpeed", 4000.0)
	v.SetDefault("combat.projectileRadius", 15.0)
	v.SetDefault("combat.maxSubSteps", 32)
	v.SetDefault("combat.characterWidth", 68.0)
	v.SetDefault("combat.characterHeight", 68.0)

	v.SetDefault("movement.normalSpeed", 300.0)
	v.SetDefault("movement.sprintSpeed", 500.0)

	v.SetDefault("orientation.interpSpeed", 10.0)
	v.SetDefault("orientation.snapTolerance", 0.0)

	v.SetDefault("validation.enabled", true)
	v.SetDefault("validation.maxPitch", 90.0)
	v.SetDefault("validation.maxMove", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("master.port", 8080)
	v.SetDefault("master.ttl", "90s")
}

// BindFlags registers the common command-line overrides on fs and binds them
// to their config keys.
func BindFlags(fs *pflag.FlagSet) error {
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.Bool("log-pretty", false, "human-readable console logs")
	fs.Int("port", 7373, "host listen port")
	fs.String("level", "", "arena .tmx file; empty for an open arena")
	fs.String("master", "", "master directory URL; empty disables registration")
	fs.Int("dummies", 0, "host-controlled target characters to spawn")
	fs.String("url", "ws://localhost:7373", "host websocket URL (client)")
	fs.String("name", "bot", "player name (client)")

	bindings := map[string]string{
		"log.level":         "log-level",
		"log.pretty":        "log-pretty",
		"server.port":       "port",
		"server.level":      "level",
		"server.masterURL":  "master",
		"server.dummies":    "dummies",
		"client.url":        "url",
		"client.playerName": "name",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads configuration into the global viper instance. path may be empty,
// in which case only defaults, environment and bound flags apply.
func Load(path string) (*Config, error) {
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without touching the global
// viper instance, the environment or the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return cfg
}

// Validate rejects settings the host cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tickRate must be positive, got %d", c.Server.TickRate))
	}
	if c.Server.Dummies < 0 {
		errs = append(errs, fmt.Errorf("server.dummies must not be negative, got %d", c.Server.Dummies))
	}
	if c.Server.MaxPlayers <= 0 {
		errs = append(errs, fmt.Errorf("server.maxPlayers must be positive, got %d", c.Server.MaxPlayers))
	}
	if c.Combat.FirePeriod <= 0 {
		errs = append(errs, fmt.Errorf("combat.firePeriod must be positive, got %s", c.Combat.FirePeriod))
	}
	if c.Combat.ProjectileSpeed <= 0 {
		errs = append(errs, fmt.Errorf("combat.projectileSpeed must be positive, got %g", c.Combat.ProjectileSpeed))
	}
	if c.Combat.ProjectileRadius <= 0 {
		errs = append(errs, fmt.Errorf("combat.projectileRadius must be positive, got %g", c.Combat.ProjectileRadius))
	}
	if c.Orientation.SnapTolerance < 0 {
		errs = append(errs, fmt.Errorf("orientation.snapTolerance must not be negative, got %g", c.Orientation.SnapTolerance))
	}
	if c.Client.ResendInterval <= 0 {
		errs = append(errs, fmt.Errorf("client.resendInterval must be positive, got %s", c.Client.ResendInterval))
	}
	if c.Client.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("client.tickRate must be positive, got %d", c.Client.TickRate))
	}
	return errors.Join(errs...)
}
