package migration

import (
	"fmt"

	appconfig "github.com/ConWan30/skillsync-ai-platform-sub000/config"
)

// NewMigratorFromConfig 从应用配置创建迁移器
func NewMigratorFromConfig(cfg *appconfig.Config) (*DefaultMigrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return NewMigratorFromDatabaseConfig(cfg.Database)
}

// NewMigratorFromDatabaseConfig 从数据库配置创建迁移器
func NewMigratorFromDatabaseConfig(dbCfg appconfig.DatabaseConfig) (*DefaultMigrator, error) {
	dialect, err := ParseDialect(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database dialect: %w", err)
	}

	var dbURL string
	switch dialect {
	case DialectPostgres:
		dbURL = BuildDatabaseURL(dialect, dbCfg.Host, dbCfg.Port, dbCfg.Name, dbCfg.User, dbCfg.Password, dbCfg.SSLMode)
	case DialectMySQL:
		dbURL = BuildDatabaseURL(dialect, dbCfg.Host, dbCfg.Port, dbCfg.Name, dbCfg.User, dbCfg.Password, "")
	case DialectSQLite:
		// sqlite 的 Name 字段即文件路径
		dbURL = BuildDatabaseURL(dialect, "", 0, dbCfg.Name, "", "", "")
	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}

	return NewMigrator(&Config{
		Dialect:     dialect,
		DatabaseURL: dbURL,
	})
}

// NewMigratorFromURL 从连接串创建迁移器
func NewMigratorFromURL(driver, dbURL string) (*DefaultMigrator, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	return NewMigrator(&Config{
		Dialect:     dialect,
		DatabaseURL: dbURL,
	})
}
