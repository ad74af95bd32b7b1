// 版权所有 2024 SkillSync Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 dna 实现职业 DNA 分析与隐私保险库。

Engine 从行为信号计算八个 DNA 分量（认知风格、学习速度、
问题解决、领导力标记、创新商数、协作化学、风险承受度与
适应风格），全部取值在 [0,1] 区间；画像再分析时在既有版本
上演化，追加演化与突变事件而不改写历史。Engine 同时提供
岗位匹配与团队契合度评分。

Vault 负责画像的加密持久化：同意记录带 SHA-256 同意哈希，
每用户数据密钥由服务主密钥与随机盐经 PBKDF2(600k) 派生，
画像以 AES-256-GCM 认证加密存储。写入画像要求有效同意；
Purge 实现被遗忘权，撤销同意并删除全部派生数据。
*/
package dna
