// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 intel 实现主动职业情报周期。

Engine 周期性分析趋势技能的市场信号（LLM 辅助，不可用时
回退静态估计，结果经 Redis 缓存），再为每个注册用户生成
个性化洞察：相关趋势、推荐、行动项、技能缺口与匹配机会。
周期摘要通过总线分享给其他 Agent。
*/
package intel
