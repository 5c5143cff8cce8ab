// Package config loads the database connection settings for export
// runs from a YAML file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// SupportedDrivers lists the database drivers the tool links in.
var SupportedDrivers = []string{"mysql", "sqlite3"}

// Config holds connection settings for one database.
type Config struct {
	// Driver selects the database driver: "mysql" for a live OpenMRS
	// database, "sqlite3" for a local snapshot. Defaults to "mysql".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name, e.g.
	// "user:password@tcp(localhost:3306)/openmrs" or a sqlite path.
	// For mysql it may be left empty and assembled from the fields
	// below instead.
	DSN string `yaml:"dsn"`

	// Host, Database, User and Password assemble a mysql DSN when DSN
	// is not given. Host defaults to "localhost:3306".
	Host     string `yaml:"host"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// OutDir is where export CSVs are written. Defaults to the
	// current directory.
	OutDir string `yaml:"out_dir"`
}

// Load reads and validates a YAML config file. Unknown fields are
// rejected so typos surface instead of silently falling back to
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Driver == "" {
		cfg.Driver = "mysql"
	}
	if !isSupportedDriver(cfg.Driver) {
		return nil, fmt.Errorf("config %s: unsupported driver %q (supported: %v)", path, cfg.Driver, SupportedDrivers)
	}
	if cfg.DSN == "" {
		if cfg.Driver != "mysql" || cfg.Database == "" {
			return nil, fmt.Errorf("config %s: dsn is required", path)
		}
		cfg.DSN = mysqlDSN(cfg)
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	return cfg, nil
}

// mysqlDSN assembles a DSN from the host/database/user/password fields
// so operators do not have to hand-write the driver's DSN syntax.
func mysqlDSN(cfg *Config) string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.Host
	if mc.Addr == "" {
		mc.Addr = "localhost:3306"
	}
	mc.DBName = cfg.Database
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	return mc.FormatDSN()
}

func isSupportedDriver(driver string) bool {
	for _, d := range SupportedDrivers {
		if d == driver {
			return true
		}
	}
	return false
}
