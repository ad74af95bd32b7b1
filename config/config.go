// =============================================================================
// 📦 SkillSync 配置结构
// =============================================================================
// 统一配置定义，覆盖 HTTP 服务、数据库、Redis、xAI、智能体与职位集成
// =============================================================================
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config 是 SkillSync 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Database 数据库配置
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis 缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// XAI 大语言模型配置
	XAI XAIConfig `yaml:"xai" env:"XAI"`

	// JWT 用户身份认证配置
	JWT JWTConfig `yaml:"jwt" env:"JWT"`

	// Agents 智能体总线与蜂群配置
	Agents AgentsConfig `yaml:"agents" env:"AGENTS"`

	// Privacy DNA 隐私保险库配置
	Privacy PrivacyConfig `yaml:"privacy" env:"PRIVACY"`

	// Jobs 职位平台集成配置
	Jobs JobsConfig `yaml:"jobs" env:"JOBS"`

	// Upload 文件上传配置
	Upload UploadConfig `yaml:"upload" env:"UPLOAD"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 限流速率（每秒请求数）
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// CORS 允许的来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// API Keys（为空时跳过认证）
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// 是否允许通过查询参数传递 API Key
	AllowQueryAPIKey bool `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: postgres, mysql, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 时为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址（为空时禁用缓存）
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 默认过期时间
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
}

// XAIConfig xAI Grok API 配置
type XAIConfig struct {
	// API Key（为空时 AI 端点返回 503）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 默认模型
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 采样温度
	Temperature float32 `yaml:"temperature" env:"TEMPERATURE"`
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	// 是否启用（仅保护 DNA 隐私端点）
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// HMAC 密钥
	Secret string `yaml:"secret" env:"SECRET"`
	// 签发者
	Issuer string `yaml:"issuer" env:"ISSUER"`
	// 受众
	Audience string `yaml:"audience" env:"AUDIENCE"`
}

// AgentsConfig 智能体总线与蜂群配置
type AgentsConfig struct {
	// 消息队列容量
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
	// 会话/历史清理间隔
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`
	// 历史保留时长
	RetentionWindow time.Duration `yaml:"retention_window" env:"RETENTION_WINDOW"`
	// 单次蜂群分析超时
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" env:"ANALYSIS_TIMEOUT"`
}

// PrivacyConfig DNA 隐私保险库配置
type PrivacyConfig struct {
	// 保险库主密钥，用于派生用户级加密密钥
	MasterKey string `yaml:"master_key" env:"MASTER_KEY"`
	// 密钥派生迭代次数
	KDFIterations int `yaml:"kdf_iterations" env:"KDF_ITERATIONS"`
	// 删除宽限期
	DeletionGracePeriod time.Duration `yaml:"deletion_grace_period" env:"DELETION_GRACE_PERIOD"`
	// 默认数据保留天数
	RetentionDays int `yaml:"retention_days" env:"RETENTION_DAYS"`
}

// JobsConfig 职位平台集成配置
type JobsConfig struct {
	// 启用的平台列表: indeed, linkedin, ziprecruiter, gaming_jobs
	Platforms []string `yaml:"platforms" env:"PLATFORMS"`
	// 每平台每搜索返回的最大职位数
	PerPlatformLimit int `yaml:"per_platform_limit" env:"PER_PLATFORM_LIMIT"`
	// 每平台请求速率（次/分钟）
	RatePerMinute int `yaml:"rate_per_minute" env:"RATE_PER_MINUTE"`
	// Indeed 发布商 ID（联盟链接）
	IndeedPublisherID string `yaml:"indeed_publisher_id" env:"INDEED_PUBLISHER_ID"`
	// ZipRecruiter 联盟 ID
	ZipAffiliateID string `yaml:"zip_affiliate_id" env:"ZIP_AFFILIATE_ID"`
	// 搜索结果缓存时长
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	// 存储目录
	Dir string `yaml:"dir" env:"DIR"`
	// 单文件大小上限（字节）
	MaxBytes int64 `yaml:"max_bytes" env:"MAX_BYTES"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.HTTPPort == c.Server.MetricsPort {
		errs = append(errs, "HTTP and metrics ports must differ")
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite", "":
	default:
		errs = append(errs, fmt.Sprintf("unsupported database driver: %s", c.Database.Driver))
	}

	if c.XAI.Temperature < 0 || c.XAI.Temperature > 2 {
		errs = append(errs, "xai temperature must be between 0 and 2")
	}
	if c.XAI.MaxRetries < 0 {
		errs = append(errs, "xai max_retries must be non-negative")
	}

	if c.Agents.QueueSize <= 0 {
		errs = append(errs, "agents queue_size must be positive")
	}
	if c.Privacy.KDFIterations < 100000 {
		errs = append(errs, "privacy kdf_iterations must be at least 100000")
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, "upload max_bytes must be positive")
	}
	if c.JWT.Enabled && c.JWT.Secret == "" {
		errs = append(errs, "jwt secret required when jwt enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
