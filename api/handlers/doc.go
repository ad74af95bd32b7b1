// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package handlers 提供 SkillSync HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 SkillSync 所有 HTTP 端点的请求处理逻辑,
包括用户与技能管理、AI 评估与职业指导、群体分析、职业 DNA、
职位搜索以及统一的响应/错误处理。所有 Handler 均遵循标准
net/http 接口,通过 Swagger 注解生成 API 文档。

# 核心类型

  - UserHandler    — 用户、技能、评估、学习路径 CRUD
  - AIHandler      — AI 技能评估与职业指导(带 Redis 结果缓存)
  - SwarmHandler   — 群体职业分析与代理状态快照
  - DNAHandler     — 职业 DNA 分析与隐私保险库
  - JobsHandler    — 多平台职位搜索、事件跟踪、收入指标
  - FilesHandler   — multipart 文件上传(16MB 上限)
  - IntelHandler   — 主动情报周期触发
  - HealthHandler  — 服务健康检查(/health, /healthz, /ready)
  - Response       — 统一 JSON 响应结构(success + data + error + timestamp)

# 主要能力

  - 统一响应格式:WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证:DecodeJSONBody(严格模式)、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射(4xx/5xx)
  - 可扩展健康检查:RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
