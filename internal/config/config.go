package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/civicdata/policy-atlas/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Census   CensusConfig   `yaml:"census" mapstructure:"census"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input CSV tables.
type DataConfig struct {
	Policies        string `yaml:"policies" mapstructure:"policies"`
	Electoral       string `yaml:"electoral" mapstructure:"electoral"`
	HouseElections  string `yaml:"house_elections" mapstructure:"house_elections"`
	UnauthorizedPop string `yaml:"unauthorized_pop" mapstructure:"unauthorized_pop"`
	CountyVotes     string `yaml:"county_votes" mapstructure:"county_votes"`
	CountyAdjacency string `yaml:"county_adjacency" mapstructure:"county_adjacency"`
	BorderLinks     string `yaml:"border_links" mapstructure:"border_links"`
}

// CensusConfig configures cartographic boundary downloads.
type CensusConfig struct {
	CacheDir        string `yaml:"cache_dir" mapstructure:"cache_dir"`
	HTTPBase        string `yaml:"http_base" mapstructure:"http_base"`
	FTPBase         string `yaml:"ftp_base" mapstructure:"ftp_base"`
	FallbackGeoJSON string `yaml:"fallback_geojson" mapstructure:"fallback_geojson"`
}

// OutputConfig configures where figures and exports are written.
type OutputConfig struct {
	FiguresDir string `yaml:"figures_dir" mapstructure:"figures_dir"`
	Workbook   string `yaml:"workbook" mapstructure:"workbook"`
}

// AnalysisConfig holds analysis parameters.
type AnalysisConfig struct {
	Year int `yaml:"year" mapstructure:"year"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string            `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("POLICYATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.policies", "data/state_policies.csv")
	v.SetDefault("data.electoral", "data/presidential_by_state.csv")
	v.SetDefault("data.house_elections", "data/house_by_state.csv")
	v.SetDefault("data.unauthorized_pop", "data/unauthorized_population.csv")
	v.SetDefault("data.county_votes", "data/president_by_county.csv")
	v.SetDefault("data.county_adjacency", "data/county_adjacency.csv")
	v.SetDefault("data.border_links", "data/border_links.csv")
	v.SetDefault("census.cache_dir", ".cache/census")
	v.SetDefault("census.fallback_geojson", "data/us_states.geojson")
	v.SetDefault("output.figures_dir", "figures")
	v.SetDefault("output.workbook", "figures/report.xlsx")
	v.SetDefault("analysis.year", 2024)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "atlas.db")
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

// Validate checks the fields a command mode depends on.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkStore := func() {
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.SQLitePath == "" {
				problems = append(problems, "store.sqlite_path is required")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required")
			}
		default:
			problems = append(problems, "store.driver must be sqlite or postgres")
		}
	}

	switch mode {
	case "run":
		if c.Data.Policies == "" {
			problems = append(problems, "data.policies is required")
		}
		if c.Output.FiguresDir == "" {
			problems = append(problems, "output.figures_dir is required")
		}
		if c.Analysis.Year <= 0 {
			problems = append(problems, "analysis.year must be > 0")
		}
		checkStore()
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
