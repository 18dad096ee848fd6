package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/calclimate/firedash/internal/pipeline"
)

// Config holds the full application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data" mapstructure:"data"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Predict PredictConfig `yaml:"predict" mapstructure:"predict"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DataConfig names the input directories. Every path is injected rather than
// baked in; per-variable overrides win over the root-relative convention.
type DataConfig struct {
	Root             string `yaml:"root" mapstructure:"root"`
	HumidityDir      string `yaml:"humidity_dir" mapstructure:"humidity_dir"`
	TemperatureDir   string `yaml:"temperature_dir" mapstructure:"temperature_dir"`
	PrecipDailyDir   string `yaml:"precip_daily_dir" mapstructure:"precip_daily_dir"`
	PrecipMonthlyDir string `yaml:"precip_monthly_dir" mapstructure:"precip_monthly_dir"`
	WindDir          string `yaml:"wind_dir" mapstructure:"wind_dir"`
	AerosolDir       string `yaml:"aerosol_dir" mapstructure:"aerosol_dir"`
	FireDir          string `yaml:"fire_dir" mapstructure:"fire_dir"`
	BoundaryPath     string `yaml:"boundary_path" mapstructure:"boundary_path"`
	PlotDir          string `yaml:"plot_dir" mapstructure:"plot_dir"`
}

// Sources maps the data section onto the pipeline's source layout.
func (d DataConfig) Sources() pipeline.Sources {
	return pipeline.Sources{
		Root:             d.Root,
		HumidityDir:      d.HumidityDir,
		TemperatureDir:   d.TemperatureDir,
		PrecipDailyDir:   d.PrecipDailyDir,
		PrecipMonthlyDir: d.PrecipMonthlyDir,
		WindDir:          d.WindDir,
		AerosolDir:       d.AerosolDir,
		FireDir:          d.FireDir,
		BoundaryPath:     d.BoundaryPath,
	}
}

// CacheConfig configures the derivation cache.
type CacheConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
}

// PredictConfig configures the inference adapter.
type PredictConfig struct {
	ModelPath string   `yaml:"model_path" mapstructure:"model_path"`
	Features  []string `yaml:"features" mapstructure:"features"`
}

// ServerConfig configures the HTTP accessor surface.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FIREDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.root", "data")
	v.SetDefault("cache.path", "firedash-cache.db")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("predict.features", []string{
		pipeline.VarTemperature,
		pipeline.VarPrecipitation,
		pipeline.VarHumidity,
		pipeline.VarWindSpeed,
	})
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
