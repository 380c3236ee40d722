package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/grlabs/grepp/pkg/db"
	"github.com/grlabs/grepp/pkg/epp"
	"github.com/grlabs/grepp/pkg/notify"
	"github.com/grlabs/grepp/pkg/registry"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration shared by all commands. Registry
// credentials may alternatively come from the environment; the file wins
// when both are set.
type Config struct {
	Registry       RegistryConfig          `yaml:"registry"`
	DefaultContact registry.DefaultContact `yaml:"default_contact"`
	Notifications  NotificationsConfig     `yaml:"notifications"`
	Monitor        MonitorConfig           `yaml:"monitor"`
	API            APIConfig               `yaml:"api"`
}

type RegistryConfig struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	RegistrarID string `yaml:"registrar_id"`
	Production  bool   `yaml:"production"`
	CAChainFile string `yaml:"ca_chain_file"`
}

type NotificationsConfig struct {
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		FromName string `yaml:"from_name"`
	} `yaml:"smtp"`
	SMS struct {
		GatewayURL string `yaml:"gateway_url"`
		Token      string `yaml:"token"`
	} `yaml:"sms"`
	Webhook struct {
		Secret      string `yaml:"secret"`
		TimeoutSecs int    `yaml:"timeout_secs"`
	} `yaml:"webhook"`
	MaxAttempts int    `yaml:"max_attempts"`
	EscalateTo  string `yaml:"escalate_to"`
}

type MonitorConfig struct {
	Enabled           bool   `yaml:"enabled"`
	LockFile          string `yaml:"lock_file"`
	LockStaleSecs     int    `yaml:"lock_stale_secs"`
	CheckIntervalSecs int    `yaml:"check_interval_secs"`
	RetentionDays     int    `yaml:"retention_days"`
}

type APIConfig struct {
	TokenHash string `yaml:"token_hash"`
}

// LoadConfig reads the YAML file at path. A missing file yields an empty
// config so commands that only need flags still run.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Registry.Username == "" {
		c.Registry.Username = os.Getenv("GREPP_REGISTRY_USERNAME")
	}
	if c.Registry.Password == "" {
		c.Registry.Password = os.Getenv("GREPP_REGISTRY_PASSWORD")
	}
	if c.Registry.RegistrarID == "" {
		c.Registry.RegistrarID = c.Registry.Username
	}
	if c.Notifications.MaxAttempts == 0 {
		c.Notifications.MaxAttempts = notify.DefaultMaxAttempts
	}
	if c.Monitor.LockFile == "" {
		c.Monitor.LockFile = os.TempDir() + "/grepp-monitor.lock"
	}
	if c.Monitor.LockStaleSecs == 0 {
		c.Monitor.LockStaleSecs = 3600
	}
	if c.Monitor.CheckIntervalSecs == 0 {
		c.Monitor.CheckIntervalSecs = 3600
	}
	if c.Monitor.RetentionDays == 0 {
		c.Monitor.RetentionDays = 730
	}
}

// RequireCredentials fails when the registry credentials are absent. Batch
// jobs treat this as a fatal initialization error.
func (c *Config) RequireCredentials() error {
	if c.Registry.Username == "" || c.Registry.Password == "" {
		return fmt.Errorf("registry credentials are not configured")
	}
	return nil
}

// EppClient builds one registry session client from the config. One client
// per worker; the session cookie is not safe to share.
func (c *Config) EppClient() (*epp.Client, error) {
	return epp.New(epp.Config{
		Username:    c.Registry.Username,
		Password:    c.Registry.Password,
		Production:  c.Registry.Production,
		CAChainFile: c.Registry.CAChainFile,
	})
}

// Senders builds the channel sender map from the configured transports.
func (c *Config) Senders() map[string]notify.Sender {
	n := c.Notifications
	return map[string]notify.Sender{
		db.ChannelEmail: &notify.EmailSender{
			Host:     n.SMTP.Host,
			Port:     n.SMTP.Port,
			Username: n.SMTP.Username,
			Password: n.SMTP.Password,
			From:     n.SMTP.From,
			FromName: n.SMTP.FromName,
		},
		db.ChannelSMS: &notify.SMSSender{
			GatewayURL: n.SMS.GatewayURL,
			Token:      n.SMS.Token,
		},
		db.ChannelWebhook: &notify.WebhookSender{
			Secret:  n.Webhook.Secret,
			Timeout: time.Duration(n.Webhook.TimeoutSecs) * time.Second,
		},
	}
}
