// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 bus 实现进程内的 Agent-to-Agent (A2A) 消息总线。

# 概述

总线承载 SkillSync 各职业智能 Agent 之间的状态同步、洞察共享、
协作会话与学习数据分发。消息经有界通道排队，由独立的调度
goroutine 消费并投递到各 Agent 注册的处理回调。

# 核心类型

  - Bus：消息总线，管理 Agent 注册表、消息队列、协作会话、
    共享知识库与学习模式。
  - Message：Agent 间消息，ReceiverID 为空表示广播。
  - AgentState：Agent 注册状态，含角色类型与性能指标。
  - CollaborationSession：跨 Agent 协作会话及参与者响应。

# 投递语义

发送永不阻塞：队列满时消息被丢弃并计入指标；发往未注册接收方
的消息被丢弃并记录告警日志。广播消息不会回送给发送方。
过期会话与洞察由周期清理任务按保留期移除。
*/
package bus
