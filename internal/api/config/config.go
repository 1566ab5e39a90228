package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	Security SecurityConfig `mapstructure:"security"`
	Query    QueryConfig    `mapstructure:"query"`
	Detail   DetailConfig   `mapstructure:"detail"`
	Cron     CronConfig     `mapstructure:"cron"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LogstashConfig 远程日志，Address 为空时只输出到 stdout
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
	Level   string `mapstructure:"level"`
}

// SecurityConfig 身份令牌校验
type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// QueryConfig 列表查询
type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// DetailConfig 详情聚合
type DetailConfig struct {
	RelatedLimit      int `mapstructure:"related_limit"`
	BestEffortTimeout int `mapstructure:"best_effort_timeout"` // 毫秒
}

type CronConfig struct {
	ReconcileSpec string `mapstructure:"reconcile_spec"`
}

type KafkaConfig struct {
	Brokers []string   `mapstructure:"brokers"`
	Topic   string     `mapstructure:"topic"`
	Sasl    SaslConfig `mapstructure:"sasl"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}
