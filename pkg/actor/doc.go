// Package actor 提供分层监督的 Actor 运行时。
//
// 每个 actor 由一个 actorCell 承载，cell 在重启后保持不变，被包装的 IActor 实例会被替换。
// 用户消息和系统消息分两个队列进入 Mailbox，系统消息总是优先处理；
// 同一个 cell 同一时刻只会在一个协程中执行。
//
// 失败（OnMessage 返回 error 或 panic）会被转换为发给父节点的 Failed 系统消息，
// 由父节点的 SupervisorStrategy 决定 Resume / Restart / Stop / Escalate。
package actor
