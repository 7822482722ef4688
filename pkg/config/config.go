package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Solver    SolverConfig
	Proposals ProposalConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig fixes the time discretisation and the hard limits the
// timetable engine works with. All durations are counted in atomic slots.
type SchedulerConfig struct {
	AtomicMinutes       int
	ReservedSlots       []int
	SingleDayMax        int
	SplitLengths        []int
	MaxTeacherUnits     int
	MaxSnapshotTeachers int
}

// SolverConfig bounds the search backend.
type SolverConfig struct {
	Timeout time.Duration
	Budget  int64
	Seed    int64
}

// ProposalConfig governs the proposal store used between generate and save.
type ProposalConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*time.Minute),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		AtomicMinutes:       v.GetInt("SCHEDULER_ATOMIC_MINUTES"),
		ReservedSlots:       splitAndTrimInts(v.GetString("SCHEDULER_RESERVED_SLOTS")),
		SingleDayMax:        v.GetInt("SCHEDULER_SINGLE_DAY_MAX_UNITS"),
		SplitLengths:        splitAndTrimInts(v.GetString("SCHEDULER_SPLIT_LENGTHS")),
		MaxTeacherUnits:     v.GetInt("SCHEDULER_MAX_TEACHER_UNITS"),
		MaxSnapshotTeachers: v.GetInt("SCHEDULER_MAX_SNAPSHOT_TEACHERS"),
	}

	cfg.Solver = SolverConfig{
		Timeout: parseDuration(v.GetString("SOLVER_TIMEOUT"), 30*time.Second),
		Budget:  v.GetInt64("SOLVER_BUDGET"),
		Seed:    v.GetInt64("SOLVER_SEED"),
	}

	cfg.Proposals = ProposalConfig{
		TTL: parseDuration(v.GetString("PROPOSAL_TTL"), 30*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "30m")
	v.SetDefault("JWT_ISSUER", "timetable-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	// 30-minute slots counted from midnight. Slots 24 and 25 are the
	// 12:00-13:00 lunch window.
	v.SetDefault("SCHEDULER_ATOMIC_MINUTES", 30)
	v.SetDefault("SCHEDULER_RESERVED_SLOTS", "24,25")
	v.SetDefault("SCHEDULER_SINGLE_DAY_MAX_UNITS", 8)
	v.SetDefault("SCHEDULER_SPLIT_LENGTHS", "6,4")
	v.SetDefault("SCHEDULER_MAX_TEACHER_UNITS", 40)
	v.SetDefault("SCHEDULER_MAX_SNAPSHOT_TEACHERS", 500)

	v.SetDefault("SOLVER_TIMEOUT", "30s")
	v.SetDefault("SOLVER_BUDGET", 5_000_000)
	v.SetDefault("SOLVER_SEED", 0)

	v.SetDefault("PROPOSAL_TTL", "30m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func splitAndTrimInts(raw string) []int {
	var result []int
	for _, part := range splitAndTrim(raw) {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			continue
		}
		result = append(result, value)
	}
	return result
}
