// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 基于 golang-migrate 提供版本化数据库迁移能力，
支持 PostgreSQL、MySQL 与 SQLite 三种方言。

# 概述

迁移 SQL 文件按方言分目录内嵌于二进制（embed.FS），运行时
无需外部文件。版本表默认 schema_migrations，文件名约定
000001_init_schema.up.sql / .down.sql。

# 核心类型

  - Migrator：迁移器接口，提供 Up/Down/DownAll/Goto/Force/
    Version/Status/Info 等操作。
  - DefaultMigrator：基于 golang-migrate 的默认实现。
  - CLI：命令行输出封装，供 cmd 层的 migrate 子命令使用。

# 工厂函数

NewMigratorFromConfig 与 NewMigratorFromDatabaseConfig 从应用
配置构造迁移器，NewMigratorFromURL 直接接受连接串。
*/
package migration
