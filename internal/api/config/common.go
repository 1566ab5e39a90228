package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 INKWELL_* 可覆盖文件中的值
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("INKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("logstash.level", "info")
	v.SetDefault("security.issuer", "Inkwell")
	v.SetDefault("query.default_limit", 6)
	v.SetDefault("query.max_limit", 50)
	v.SetDefault("detail.related_limit", 3)
	v.SetDefault("detail.best_effort_timeout", 800)
	v.SetDefault("cron.reconcile_spec", "0 0 * * * *")
	v.SetDefault("kafka.topic", "inkwell.events")
}
