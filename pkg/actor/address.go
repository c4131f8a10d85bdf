package actor

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const DefaultProtocol = "gactor"

// Address 系统地址，Host 为空表示本地地址
type Address struct {
	Protocol string
	System   string
	Host     string
	Port     int
}

func NewLocalAddress(system string) Address {
	return Address{Protocol: DefaultProtocol, System: system}
}

func (a Address) HasLocalScope() bool {
	return a.Host == ""
}

// HostPort host:port，本地地址返回空串
func (a Address) HostPort() string {
	if a.HasLocalScope() {
		return ""
	}
	return a.Host + ":" + strconv.Itoa(a.Port)
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// String protocol://system 或 protocol://system@host:port
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(a.Protocol)
	sb.WriteString("://")
	sb.WriteString(a.System)
	if !a.HasLocalScope() {
		sb.WriteByte('@')
		sb.WriteString(a.HostPort())
	}
	return sb.String()
}

func (a Address) Equal(other Address) bool {
	return a.String() == other.String()
}

// parseAddress 解析 protocol://system[@host:port]
func parseAddress(protocol, authority string) (Address, error) {
	if protocol == "" {
		return Address{}, errors.Wrap(ErrInvalidPath, "empty protocol")
	}
	addr := Address{Protocol: protocol}
	at := strings.IndexByte(authority, '@')
	if at < 0 {
		addr.System = authority
	} else {
		addr.System = authority[:at]
		hostPort := authority[at+1:]
		colon := strings.LastIndexByte(hostPort, ':')
		if colon <= 0 {
			return Address{}, errors.Wrapf(ErrInvalidPath, "missing port in %q", hostPort)
		}
		port, err := strconv.Atoi(hostPort[colon+1:])
		if err != nil || port < 0 || port > 65535 {
			return Address{}, errors.Wrapf(ErrInvalidPath, "invalid port in %q", hostPort)
		}
		addr.Host = hostPort[:colon]
		addr.Port = port
	}
	if addr.System == "" {
		return Address{}, errors.Wrap(ErrInvalidPath, "empty system name")
	}
	return addr, nil
}
