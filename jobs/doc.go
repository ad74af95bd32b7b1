// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package jobs 聚合多个招聘平台的职位搜索。
//
// Integrator 并发查询各平台搜索器,按平台限流,合并结果后
// 去重、打相关度分并附加联盟跟踪参数。Tracker 记录点击、
// 申请与录用事件,并根据转化率估算分成收入。
//
// 外部 API 不可用或未配置凭据时,各平台搜索器回退到精选
// 样例数据,保证搜索端点始终可用。
package jobs
