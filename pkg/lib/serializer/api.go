/**
 * @Author: dingQingHui
 * @Description:
 * @File: api
 * @Version: 1.0.0
 * @Date: 2024/11/19 18:10
 */

package serializer

import (
	"reflect"

	"google.golang.org/protobuf/proto"
)

// ISerializer 消息编解码
type ISerializer interface {
	Name() string
	Marshal(msg interface{}) ([]byte, error)
	Unmarshal(data []byte, msg interface{}) error
}

var (
	Json    ISerializer = new(jsonCodec)
	MsgPack ISerializer = new(msgPackCodec)
	PB      ISerializer = new(pbCodec)
)

// FindSerializerFor pb 消息使用 protobuf，其余使用 msgpack
func FindSerializerFor(msg interface{}) ISerializer {
	if _, ok := msg.(proto.Message); ok {
		return PB
	}
	return MsgPack
}

// ByName 按名字查找编解码器
func ByName(name string) (ISerializer, bool) {
	switch name {
	case Json.Name():
		return Json, true
	case MsgPack.Name():
		return MsgPack, true
	case PB.Name():
		return PB, true
	}
	return nil, false
}

// NewInstanceOf 创建与 msg 同类型的空值，返回值总是指针
func NewInstanceOf(msg interface{}) (ptr interface{}, isPtr bool, err error) {
	if msg == nil {
		return nil, false, ErrNilMessage
	}
	if m, ok := msg.(proto.Message); ok {
		return m.ProtoReflect().New().Interface(), true, nil
	}
	t := reflect.TypeOf(msg)
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface(), true, nil
	}
	return reflect.New(t).Interface(), false, nil
}

// RoundTrip 序列化后再反序列化，返回同类型的新值
func RoundTrip(s ISerializer, msg interface{}) (interface{}, error) {
	data, err := s.Marshal(msg)
	if err != nil {
		return nil, err
	}
	ptr, isPtr, err := NewInstanceOf(msg)
	if err != nil {
		return nil, err
	}
	if err = s.Unmarshal(data, ptr); err != nil {
		return nil, err
	}
	if isPtr {
		return ptr, nil
	}
	return Elem(ptr), nil
}

// Elem 取出指针指向的值
func Elem(ptr interface{}) interface{} {
	return reflect.ValueOf(ptr).Elem().Interface()
}
