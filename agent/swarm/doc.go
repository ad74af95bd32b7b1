// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 swarm 实现职业智能蜂群分析。

多个专长不同的分析 Agent 并发处理同一份职业数据，
随后按角色协同分执行成对协作，最终综合为统一的推荐列表
与整体置信度。内置三个 Agent：

  - MultiPerspectiveAnalyzer：多视角状态分析与情景集成。
  - TemporalNavigator：履历时间维度与转型时机窗口。
  - EmergenceCatalyst：跨领域技能组合的涌现机会检测。

全部评分为确定性启发式，随机成分仅用于置信度抖动基线，
随机源可注入以便测试。
*/
package swarm
