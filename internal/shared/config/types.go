package config

import "fmt"

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KeycloakConfig configures bearer-token verification against a Keycloak realm.
type KeycloakConfig struct {
	URL      string `mapstructure:"url"`
	Realm    string `mapstructure:"realm"`
	ClientID string `mapstructure:"client_id"`
}

// IssuerURL returns the realm issuer URL used for token validation.
func (k *KeycloakConfig) IssuerURL() string {
	return fmt.Sprintf("%s/realms/%s", k.URL, k.Realm)
}

// JWKSURL returns the realm's JSON Web Key Set endpoint.
func (k *KeycloakConfig) JWKSURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", k.URL, k.Realm)
}

// GuacamoleConfig configures the remote display gateway client.
type GuacamoleConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassword string `mapstructure:"admin_password"`
	DataSource    string `mapstructure:"data_source"`
}

// WinRMConfig configures the remote execution provider. An empty Host selects
// the deterministic in-memory provider instead of a real connection.
type WinRMConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	RDPHost  string `mapstructure:"rdp_host"`
	RDPPort  int    `mapstructure:"rdp_port"`
}

// SessionConfig holds session lifecycle limits and reclamation intervals.
// All durations are in seconds.
type SessionConfig struct {
	IdleTimeout        int `mapstructure:"idle_timeout"`
	HardTimeout        int `mapstructure:"hard_timeout"`
	CheckInterval      int `mapstructure:"check_interval"`
	OrphanSweepSeconds int `mapstructure:"orphan_sweep_interval"`
	MaxConcurrent      int `mapstructure:"max_concurrent"`
}

// DicomConfig holds the ingestion pipeline directories.
type DicomConfig struct {
	WatchDir     string `mapstructure:"watch_dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
	ErrorDir     string `mapstructure:"error_dir"`
}
