// =============================================================================
// 📦 SkillSync 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		XAI:       DefaultXAIConfig(),
		JWT:       DefaultJWTConfig(),
		Agents:    DefaultAgentsConfig(),
		Privacy:   DefaultPrivacyConfig(),
		Jobs:      DefaultJobsConfig(),
		Upload:    DefaultUploadConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "skillsync",
		Password:        "",
		Name:            "skillsync",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DefaultTTL:   5 * time.Minute,
	}
}

// DefaultXAIConfig 返回默认 xAI 配置
func DefaultXAIConfig() XAIConfig {
	return XAIConfig{
		BaseURL:     "https://api.x.ai",
		Model:       "grok-beta",
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Temperature: 0.7,
	}
}

// DefaultJWTConfig 返回默认 JWT 配置
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Enabled:  false,
		Issuer:   "skillsync",
		Audience: "skillsync-api",
	}
}

// DefaultAgentsConfig 返回默认智能体配置
func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{
		QueueSize:       1024,
		CleanupInterval: 10 * time.Minute,
		RetentionWindow: 24 * time.Hour,
		AnalysisTimeout: 20 * time.Second,
	}
}

// DefaultPrivacyConfig 返回默认隐私配置
func DefaultPrivacyConfig() PrivacyConfig {
	return PrivacyConfig{
		KDFIterations:       600000,
		DeletionGracePeriod: 7 * 24 * time.Hour,
		RetentionDays:       365,
	}
}

// DefaultJobsConfig 返回默认职位集成配置
func DefaultJobsConfig() JobsConfig {
	return JobsConfig{
		Platforms:        []string{"indeed", "linkedin", "ziprecruiter", "gaming_jobs"},
		PerPlatformLimit: 25,
		RatePerMinute:    30,
		CacheTTL:         10 * time.Minute,
	}
}

// DefaultUploadConfig 返回默认上传配置
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		Dir:      "uploads",
		MaxBytes: 16 << 20, // 16 MB
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "skillsync",
		SampleRate:   1.0,
	}
}
