// Package config loads service configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "dicomdesk/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Keycloak  sharedConfig.KeycloakConfig  `mapstructure:"keycloak"`
	Guacamole sharedConfig.GuacamoleConfig `mapstructure:"guacamole"`
	WinRM     sharedConfig.WinRMConfig     `mapstructure:"winrm"`
	Session   sharedConfig.SessionConfig   `mapstructure:"session"`
	Dicom     sharedConfig.DicomConfig     `mapstructure:"dicom"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")

	viper.SetEnvPrefix("DICOMDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional; env vars and defaults are enough to run
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.database", "dicomdesk")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Keycloak defaults
	viper.SetDefault("keycloak.url", "http://localhost:8180")
	viper.SetDefault("keycloak.realm", "imaging-portal")
	viper.SetDefault("keycloak.client_id", "dicomdesk-backend")

	// Guacamole defaults
	viper.SetDefault("guacamole.base_url", "http://localhost:8080/guacamole")
	viper.SetDefault("guacamole.admin_user", "guacadmin")
	viper.SetDefault("guacamole.admin_password", "")
	viper.SetDefault("guacamole.data_source", "mysql")

	// WinRM defaults (empty host selects the in-memory provider)
	viper.SetDefault("winrm.host", "")
	viper.SetDefault("winrm.port", 5986)
	viper.SetDefault("winrm.username", "")
	viper.SetDefault("winrm.password", "")
	viper.SetDefault("winrm.rdp_host", "")
	viper.SetDefault("winrm.rdp_port", 3389)

	// Session lifecycle defaults (seconds)
	viper.SetDefault("session.idle_timeout", 900)
	viper.SetDefault("session.hard_timeout", 3600)
	viper.SetDefault("session.check_interval", 60)
	viper.SetDefault("session.orphan_sweep_interval", 3600)
	viper.SetDefault("session.max_concurrent", 5)

	// DICOM ingestion defaults
	viper.SetDefault("dicom.watch_dir", "/mnt/dicom-export")
	viper.SetDefault("dicom.processed_dir", "/mnt/dicom-processed")
	viper.SetDefault("dicom.error_dir", "/mnt/dicom-error")
}
