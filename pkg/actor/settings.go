package actor

import "time"

// Settings actor 系统配置
type Settings struct {
	// DebugAutoReceive 记录 PoisonPill、Kill 等自动处理的消息
	DebugAutoReceive bool `json:"debugAutoReceive" yaml:"debugAutoReceive"`
	// DebugLifecycle 记录创建、重启、停止、监视
	DebugLifecycle bool `json:"debugLifecycle" yaml:"debugLifecycle"`
	// DebugUnhandled 未处理的消息打印 debug 日志
	DebugUnhandled bool `json:"debugUnhandled" yaml:"debugUnhandled"`
	// SerializeAllMessages 投递前对用户消息做一次序列化往返校验
	SerializeAllMessages bool `json:"serializeAllMessages" yaml:"serializeAllMessages"`
	// SerializeAllCreators 创建 actor 前先用 producer 试着构造一次实例
	SerializeAllCreators bool `json:"serializeAllCreators" yaml:"serializeAllCreators"`

	DefaultDispatcher string                      `json:"defaultDispatcher" yaml:"defaultDispatcher"`
	Dispatchers       map[string]DispatcherConfig `json:"dispatchers" yaml:"dispatchers"`
	Mailboxes         map[string]MailboxConfig    `json:"mailboxes" yaml:"mailboxes"`

	// AskTimeout Ask 未指定超时时使用
	AskTimeout time.Duration `json:"askTimeout" yaml:"askTimeout"`
	// SchedulerTick 时间轮精度
	SchedulerTick      time.Duration `json:"schedulerTick" yaml:"schedulerTick"`
	SchedulerWheelSize int64         `json:"schedulerWheelSize" yaml:"schedulerWheelSize"`
}

func DefaultSettings() *Settings {
	return &Settings{
		DefaultDispatcher: DefaultDispatcherId,
		Dispatchers: map[string]DispatcherConfig{
			DefaultDispatcherId: {Type: DispatcherGoroutine, Throughput: DefaultThroughput},
		},
		Mailboxes: map[string]MailboxConfig{
			DefaultMailboxId: {Type: MailboxUnbounded},
		},
		AskTimeout:         5 * time.Second,
		SchedulerTick:      10 * time.Millisecond,
		SchedulerWheelSize: 3600,
	}
}

// normalize 补全缺省值
func (s *Settings) normalize() *Settings {
	d := DefaultSettings()
	out := *s
	if out.DefaultDispatcher == "" {
		out.DefaultDispatcher = d.DefaultDispatcher
	}
	if out.Dispatchers == nil {
		out.Dispatchers = d.Dispatchers
	}
	if out.Mailboxes == nil {
		out.Mailboxes = d.Mailboxes
	}
	if out.AskTimeout <= 0 {
		out.AskTimeout = d.AskTimeout
	}
	if out.SchedulerTick <= 0 {
		out.SchedulerTick = d.SchedulerTick
	}
	if out.SchedulerWheelSize <= 0 {
		out.SchedulerWheelSize = d.SchedulerWheelSize
	}
	return &out
}
