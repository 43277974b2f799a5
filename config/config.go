package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database config
type DBConfig struct {
	Type     string `yaml:"type"` // postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"` // database name, or file name for sqlite
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig System config
type SysConfig struct {
	Appid    string `yaml:"appid"` // added to every log entry
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`   // debug logging, SQL included
	NodeID   int64  `yaml:"node_id"` // snowflake node used for order numbers, 0-1023
}

// LogConfig Log config
type LogConfig struct {
	Mode       string `yaml:"mode"` // development | production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system"`
	Database DBConfig  `yaml:"database"`
	Logger   LogConfig `yaml:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create dir %s", dir)
		}
	}
	return nil
}

// DefaultAppConfig is used when no config file is given and as the base that
// file values are merged onto.
var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Storefront",
		Location: "UTC",
		Workdir:  "/var/storefront",
		Debug:    false,
		NodeID:   1,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "storefront",
		User:     "postgres",
		Passwd:   "postgres",
		MaxConn:  50,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/storefront/logs/storefront.log",
	},
}

// LoadConfig reads cfile (when non-empty and present) over the defaults, then
// applies STOREFRONT_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		switch {
		case os.IsNotExist(err):
			// fall back to defaults
		case err != nil:
			return nil, errors.Wrapf(err, "read config %s", cfile)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", cfile)
			}
		}
	}
	applyEnv(&cfg)
	if cfg.System.NodeID < 0 || cfg.System.NodeID > 1023 {
		return nil, errors.Errorf("system.node_id %d out of range 0-1023", cfg.System.NodeID)
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("STOREFRONT_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("STOREFRONT_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("STOREFRONT_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvInt64Value("STOREFRONT_SYSTEM_NODE_ID", &cfg.System.NodeID)

	setEnvValue("STOREFRONT_DB_TYPE", &cfg.Database.Type)
	setEnvValue("STOREFRONT_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("STOREFRONT_DB_PORT", &cfg.Database.Port)
	setEnvValue("STOREFRONT_DB_NAME", &cfg.Database.Name)
	setEnvValue("STOREFRONT_DB_USER", &cfg.Database.User)
	setEnvValue("STOREFRONT_DB_PWD", &cfg.Database.Passwd)
	setEnvIntValue("STOREFRONT_DB_MAX_CONN", &cfg.Database.MaxConn)
	setEnvIntValue("STOREFRONT_DB_IDLE_CONN", &cfg.Database.IdleConn)
	setEnvBoolValue("STOREFRONT_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("STOREFRONT_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("STOREFRONT_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("STOREFRONT_LOGGER_FILENAME", &cfg.Logger.Filename)

	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToInt(v)
	}
}

func setEnvInt64Value(name string, val *int64) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToInt64(v)
	}
}
