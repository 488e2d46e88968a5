package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"fxbot/pkg/logger"
)

const configFilePathENV = "CONFIG_FILE"

type Config struct {
	// Instrument / bars. Durations come from env (yaml.v2 has no
	// duration parsing): BAR_PERIOD, CONNECT_TIMEOUT, POLL_INTERVAL.
	Instrument string        `yaml:"instrument"`
	BarPeriod  time.Duration `yaml:"-"`

	// Crossover periods
	FastPeriod int `yaml:"fast_period"`
	SlowPeriod int `yaml:"slow_period"`

	// Order geometry, in pips
	PipSize         float64 `yaml:"pip_size"`
	EntryOffsetPips float64 `yaml:"entry_offset_pips"` // fraction of a pip, e.g. 0.1
	StopLossPips    float64 `yaml:"stop_loss_pips"`
	TakeProfitPips  float64 `yaml:"take_profit_pips"`
	TradeSize       float64 `yaml:"trade_size"`

	ConnectTimeout time.Duration `yaml:"-"`
	WarmupBars     int           `yaml:"warmup_bars"`

	// Monitoring
	PollInterval  time.Duration `yaml:"-"`
	StorePath     string        `yaml:"store_path"`
	BenchmarkFile string        `yaml:"benchmark_file"`
	BenchmarkID   string        `yaml:"benchmark_id"`

	// Venue API
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	APIPassphrase string `yaml:"api_passphrase"`

	// Optional trade journal
	DB string `yaml:"db_dsn"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Debug bool `yaml:"debug"`
}

// NewConfig loads configs/$CONFIG_FILE (default values_local.yaml) and
// applies env overrides on top. A missing file is not fatal; env and
// defaults still produce a usable config for paper runs.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := Config{
		Instrument:      getenvDefault("INSTRUMENT", "EUR-USDT"),
		BarPeriod:       durationFromEnv("BAR_PERIOD", "1m"),
		FastPeriod:      intFromEnv("FAST_PERIOD", 10),
		SlowPeriod:      intFromEnv("SLOW_PERIOD", 30),
		PipSize:         floatFromEnv("PIP_SIZE", 0.0001),
		EntryOffsetPips: floatFromEnv("ENTRY_OFFSET_PIPS", 0.1),
		StopLossPips:    floatFromEnv("STOP_LOSS_PIPS", 20),
		TakeProfitPips:  floatFromEnv("TAKE_PROFIT_PIPS", 40),
		TradeSize:       floatFromEnv("TRADE_SIZE", 1),
		ConnectTimeout:  durationFromEnv("CONNECT_TIMEOUT", "15s"),
		WarmupBars:      intFromEnv("WARMUP_BARS", 0),
		PollInterval:    durationFromEnv("POLL_INTERVAL", "60s"),
		StorePath:       getenvDefault("STORE_PATH", "data/monitor.json"),
		BenchmarkFile:   getenvDefault("BENCHMARK_FILE", "data/benchmarks.json"),
	}

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		logger.Warn("config file %s not found, using env/defaults", configFileName)
	} else {
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return nil, err
		}
	}

	// secrets come from env when present
	if v := os.Getenv("API_KEY"); v != "" {
		config.APIKey = v
	}
	if v := os.Getenv("API_SECRET"); v != "" {
		config.APISecret = v
	}
	if v := os.Getenv("API_PASSPHRASE"); v != "" {
		config.APIPassphrase = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		config.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DB = v
	}
	if v := os.Getenv("BENCHMARK_ID"); v != "" {
		config.BenchmarkID = v
	}

	return &config, nil
}

// BarParam maps the bar period onto the venue timeframe string.
func (c *Config) BarParam() string {
	switch c.BarPeriod {
	case time.Minute:
		return "1m"
	case 5 * time.Minute:
		return "5m"
	case 15 * time.Minute:
		return "15m"
	case time.Hour:
		return "1H"
	default:
		return "1m"
	}
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
