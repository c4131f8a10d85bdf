package serializer

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

type msgPackCodec struct {
}

func (p *msgPackCodec) Name() string { return "msgpack" }

func (p *msgPackCodec) Unmarshal(data []byte, msg interface{}) error {
	if msg == nil {
		return ErrMsgPackUnPack
	}
	if err := msgpack.Unmarshal(data, msg); err != nil {
		return errors.Wrap(ErrMsgPackUnPack, err.Error())
	}
	return nil
}

func (p *msgPackCodec) Marshal(msg interface{}) ([]byte, error) {
	if msg == nil {
		return nil, ErrMsgPackPack
	}
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(ErrMsgPackPack, err.Error())
	}
	return data, nil
}
