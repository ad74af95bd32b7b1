// Package config 提供 SkillSync 的配置加载与验证。
//
// 配置来源优先级: 默认值 → YAML 文件 → 环境变量（SKILLSYNC_ 前缀）。
package config
