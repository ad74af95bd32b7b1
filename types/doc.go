// Package types 定义 SkillSync 全局共享的错误与上下文类型。
package types
