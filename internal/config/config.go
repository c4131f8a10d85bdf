package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dzm2020/gactor/pkg/actor"
	"github.com/dzm2020/gactor/pkg/glog"
)

const EnvPrefix = "GACTOR"

var (
	ErrReadConfigFileFailed  = errors.New("config: read config file failed")
	ErrUnmarshalConfigFailed = errors.New("config: unmarshal config failed")
	ErrInvalidConfig         = errors.New("config: invalid config")
)

// Config 节点配置
type Config struct {
	Node  Node           `json:"node" yaml:"node"`
	Glog  glog.Config    `json:"glog" yaml:"glog"`
	Actor actor.Settings `json:"actor" yaml:"actor"`
}

type Node struct {
	// Name 同时作为 actor 系统的名字
	Name string `json:"name" yaml:"name"`
	// ShutdownTimeout 等待所有 actor 停止的最长时间
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// Default 生成默认配置
func Default() *Config {
	return &Config{
		Node: Node{
			Name:            "gactor",
			ShutdownTimeout: 10 * time.Second,
		},
		Glog:  *glog.DefaultConfig(),
		Actor: *actor.DefaultSettings(),
	}
}

// Load 读取 yaml 配置文件，未出现的字段保留默认值
// 环境变量 GACTOR_NODE_NAME 之类可以覆盖文件中已有的配置项
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	if err := vp.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(ErrReadConfigFileFailed, "%s: %v", path, err)
	}
	cfg := Default()
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(ErrUnmarshalConfigFailed, "%s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse 从 yaml 内容解析，map 的 key 保留大小写
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(ErrUnmarshalConfigFailed, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrReadConfigFileFailed, "%s: %v", path, err)
	}
	return Parse(data)
}

func (c *Config) Validate() error {
	if err := actor.ValidateName(c.Node.Name); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "node.name: %v", err)
	}
	if _, err := glog.ParseLevel(c.Glog.Level); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "glog.level: %v", err)
	}
	if c.Node.ShutdownTimeout < 0 {
		return errors.Wrap(ErrInvalidConfig, "node.shutdownTimeout must not be negative")
	}
	for id, d := range c.Actor.Dispatchers {
		if !actor.HasDispatcherType(d.Type) {
			return errors.Wrapf(ErrInvalidConfig, "actor.dispatchers.%s: unknown type %q", id, d.Type)
		}
	}
	for id, m := range c.Actor.Mailboxes {
		switch m.Type {
		case "", actor.MailboxUnbounded, actor.MailboxBounded:
		default:
			return errors.Wrapf(ErrInvalidConfig, "actor.mailboxes.%s: unknown type %q", id, m.Type)
		}
	}
	return nil
}

// Marshal 输出 yaml，用于生成配置模板
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
