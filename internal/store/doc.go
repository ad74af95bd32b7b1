// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 store 提供业务数据的持久化层，覆盖用户、技能、评估记录、
学习路径、加密 DNA 档案、同意记录与职位事件。

# 概述

本包基于 GORM 构建，PoolManager 管理底层连接池的生命周期
（连接数上限、健康检查、优雅关闭与事务重试），Repository
提供面向业务的读写接口。

# 核心类型

  - PoolManager：连接池管理器，提供 Ping/Stats/Close 与
    WithTransaction/WithTransactionRetry 事务辅助。
  - Repository：业务仓储，所有方法接受 context.Context。
  - User/Skill/Assessment/LearningPath：基础业务模型。
  - DNARecord：仅存密文的职业 DNA 档案。
  - ConsentRecord：数据处理同意记录，支持撤销。
  - JobEvent：职位交互事件，用于收入归因汇总。

# 错误语义

重复邮箱返回 ErrDuplicateEmail，记录缺失返回 ErrNotFound，
由上层映射为对应的 HTTP 状态。
*/
package store
