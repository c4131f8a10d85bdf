package actor

import (
	"github.com/pkg/errors"

	"github.com/dzm2020/gactor/pkg/lib/serializer"
)

// Serialization 消息序列化，开启 SerializeAllMessages 时用于投递前的校验
type Serialization struct{}

func (s *Serialization) FindSerializerFor(msg interface{}) serializer.ISerializer {
	return serializer.FindSerializerFor(msg)
}

func (s *Serialization) ToBinary(msg interface{}) ([]byte, error) {
	data, err := s.FindSerializerFor(msg).Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "serialize %T", msg)
	}
	return data, nil
}

// Deserialize typeHint 只用来确定目标类型
func (s *Serialization) Deserialize(data []byte, name string, typeHint interface{}) (interface{}, error) {
	codec, ok := serializer.ByName(name)
	if !ok {
		return nil, errors.Errorf("unknown serializer %q", name)
	}
	ptr, isPtr, err := serializer.NewInstanceOf(typeHint)
	if err != nil {
		return nil, err
	}
	if err = codec.Unmarshal(data, ptr); err != nil {
		return nil, errors.Wrapf(err, "deserialize %T", typeHint)
	}
	if isPtr {
		return ptr, nil
	}
	return serializer.Elem(ptr), nil
}

// verify 序列化往返一次，返回反序列化得到的副本
// 编解码过程中的 panic 作为校验失败返回，不会传给发送方
func (s *Serialization) verify(msg interface{}) (out interface{}, err error) {
	if b, ok := msg.(*Broadcast); ok {
		inner, err := s.verify(b.Message)
		if err != nil {
			return nil, err
		}
		return &Broadcast{Message: inner}, nil
	}
	if _, ok := msg.(NoSerializationVerificationNeeded); ok {
		return msg, nil
	}
	if _, ok := msg.(SystemMessage); ok {
		return msg, nil
	}
	err = tryInvoke(func() error {
		codec := s.FindSerializerFor(msg)
		data, e := s.ToBinary(msg)
		if e != nil {
			return e
		}
		out, e = s.Deserialize(data, codec.Name(), msg)
		return e
	})
	if err != nil {
		return nil, errors.Wrapf(err, "verify %T", msg)
	}
	return out, nil
}
