package blynk

import (
	"encoding/binary"
	"errors"
)

var ErrBodyTooLarge = errors.New("body exceeds 65535 bytes")

// Encode 构造一帧请求报文，parts 之间以单个 NUL 分隔（末尾无分隔符）。
// 空 parts 生成 bodyLen=0 的报文（如 PING）。
func Encode(cmd Command, msgID uint16, parts ...string) ([]byte, error) {
	return AppendFrame(nil, cmd, msgID, parts...)
}

// AppendFrame 将一帧追加到 dst 之后，便于一次写出多帧
func AppendFrame(dst []byte, cmd Command, msgID uint16, parts ...string) ([]byte, error) {
	bodyLen := 0
	for i, p := range parts {
		if i > 0 {
			bodyLen++
		}
		bodyLen += len(p)
	}
	if bodyLen > MaxBodyLen {
		return dst, ErrBodyTooLarge
	}

	var hdr [HeaderLen]byte
	hdr[0] = byte(cmd)
	binary.BigEndian.PutUint16(hdr[1:3], msgID)
	binary.BigEndian.PutUint16(hdr[3:5], uint16(bodyLen))

	if cap(dst)-len(dst) < HeaderLen+bodyLen {
		grown := make([]byte, len(dst), len(dst)+HeaderLen+bodyLen)
		copy(grown, dst)
		dst = grown
	}
	dst = append(dst, hdr[:]...)
	for i, p := range parts {
		if i > 0 {
			dst = append(dst, Separator)
		}
		dst = append(dst, p...)
	}
	return dst, nil
}

// EncodeResponse 构造应答报文：状态码占据长度字段位置，无 body
func EncodeResponse(msgID uint16, st Status) []byte {
	b := make([]byte, HeaderLen)
	b[0] = byte(CmdResponse)
	binary.BigEndian.PutUint16(b[1:3], msgID)
	binary.BigEndian.PutUint16(b[3:5], uint16(st))
	return b
}
