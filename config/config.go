package config

import (
	"time"

	"github.com/spf13/viper"

	"pv-sizer/internal/sizing"
)

type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	API      APIConfig      `mapstructure:"api"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Database DatabaseConfig `mapstructure:"database"`
	Inverter InverterConfig `mapstructure:"inverter"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// EngineConfig carries the site assumptions and the derating policy
// applied when a request leaves them unset.
type EngineConfig struct {
	HSP        float64       `mapstructure:"hsp"`
	PR         float64       `mapstructure:"pr"`
	TAmbMin    float64       `mapstructure:"t_amb_min"`
	TCellHot   float64       `mapstructure:"t_cell_hot"`
	Days       float64       `mapstructure:"days"`
	DCACTarget float64       `mapstructure:"dc_ac_target"`
	Policy     sizing.Policy `mapstructure:"policy"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// InverterConfig is the Modbus TCP address of a live inverter for the
// probe and monitor commands.
type InverterConfig struct {
	IP      string        `mapstructure:"ip"`
	Port    int           `mapstructure:"port"`
	SlaveID uint8         `mapstructure:"slave_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

func Load(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/pv-sizer")
	}

	// Set defaults
	viper.SetDefault("engine.hsp", sizing.DefaultHSP)
	viper.SetDefault("engine.pr", sizing.DefaultPR)
	viper.SetDefault("engine.t_amb_min", sizing.DefaultTAmbMin)
	viper.SetDefault("engine.t_cell_hot", sizing.DefaultTCellHot)
	viper.SetDefault("engine.days", sizing.DefaultDaysPerMonth)
	viper.SetDefault("engine.dc_ac_target", sizing.DefaultDCACTarget)
	viper.SetDefault("engine.policy.enable_gamma_derating", false)
	viper.SetDefault("engine.policy.enable_alpha_derating", false)
	viper.SetDefault("engine.policy.module_system_voltage_cap", true)
	viper.SetDefault("api.port", 8046)
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic_prefix", "pvsizer")
	viper.SetDefault("mqtt.client_id", "pv-sizer")
	viper.SetDefault("database.path", "./pvsizer.db")
	viper.SetDefault("inverter.ip", "")
	viper.SetDefault("inverter.port", 502)
	viper.SetDefault("inverter.slave_id", 1)
	viper.SetDefault("inverter.timeout", "10s")
	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.interval", "60s")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
