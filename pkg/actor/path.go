package actor

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// ActorPath actor 路径，创建后不可修改
type ActorPath struct {
	address  Address
	elements []string
	key      string
}

// NewRootPath 根路径 "/"
func NewRootPath(address Address) *ActorPath {
	return newPath(address, nil)
}

func newPath(address Address, elements []string) *ActorPath {
	return &ActorPath{
		address:  address,
		elements: elements,
		key:      "/" + strings.Join(elements, "/"),
	}
}

// Parse 解析路径，支持 "/user/a" 和 "protocol://system@host:port/user/a" 两种格式
// 空段和 "." 被忽略，".." 回退一级
func Parse(s string) (*ActorPath, error) {
	var address Address
	rest := s
	if i := strings.Index(s, "://"); i >= 0 {
		protocol := s[:i]
		remain := s[i+3:]
		authority := remain
		rest = ""
		if slash := strings.IndexByte(remain, '/'); slash >= 0 {
			authority = remain[:slash]
			rest = remain[slash:]
		}
		addr, err := parseAddress(protocol, authority)
		if err != nil {
			return nil, err
		}
		address = addr
	} else if !strings.HasPrefix(s, "/") {
		return nil, errors.Wrapf(ErrInvalidPath, "relative path %q", s)
	}

	elements := make([]string, 0, strings.Count(rest, "/"))
	for _, seg := range strings.Split(rest, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(elements) > 0 {
				elements = elements[:len(elements)-1]
			}
		default:
			elements = append(elements, seg)
		}
	}
	return newPath(address, elements), nil
}

// Child 子路径，name 中的 "/" 会被拆成多级
func (p *ActorPath) Child(name string) *ActorPath {
	elements := slices.Clone(p.elements)
	for _, seg := range strings.Split(name, "/") {
		if seg != "" {
			elements = append(elements, seg)
		}
	}
	return newPath(p.address, elements)
}

// Parent 根路径的父路径是它自己
func (p *ActorPath) Parent() *ActorPath {
	if len(p.elements) == 0 {
		return p
	}
	return newPath(p.address, slices.Clone(p.elements[:len(p.elements)-1]))
}

func (p *ActorPath) Root() *ActorPath {
	return NewRootPath(p.address)
}

// Name 最后一段，根路径返回 "/"
func (p *ActorPath) Name() string {
	if len(p.elements) == 0 {
		return "/"
	}
	return p.elements[len(p.elements)-1]
}

func (p *ActorPath) Elements() []string {
	return slices.Clone(p.elements)
}

func (p *ActorPath) Depth() int {
	return len(p.elements)
}

func (p *ActorPath) Address() Address {
	return p.address
}

// WithAddress 替换地址
func (p *ActorPath) WithAddress(address Address) *ActorPath {
	return &ActorPath{address: address, elements: p.elements, key: p.key}
}

func (p *ActorPath) ToStringWithoutAddress() string {
	return p.key
}

func (p *ActorPath) ToStringWithAddress(address Address) string {
	return address.String() + p.key
}

func (p *ActorPath) String() string {
	return p.ToStringWithAddress(p.address)
}

// Equal 只比较路径段，地址需要单独比较
func (p *ActorPath) Equal(other *ActorPath) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.key == other.key
}

// IsDescendantOf p 是否在 ancestor 子树中（不含 ancestor 本身）
func (p *ActorPath) IsDescendantOf(ancestor *ActorPath) bool {
	if len(p.elements) <= len(ancestor.elements) {
		return false
	}
	return slices.Equal(p.elements[:len(ancestor.elements)], ancestor.elements)
}

// ValidateName 校验用户提供的子节点名字，"$" 前缀保留给自动生成的名字
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrNameCannotBeEmpty
	case strings.HasPrefix(name, "$"):
		return errors.Wrapf(ErrInvalidName, "%q: names starting with $ are reserved", name)
	case strings.ContainsAny(name, "/#?* "):
		return errors.Wrapf(ErrInvalidName, "%q: illegal character", name)
	case name == "." || name == "..":
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}
