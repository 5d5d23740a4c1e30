package blynk

import (
	"encoding/binary"
	"errors"
)

var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrShortFrame      = errors.New("short frame")
	ErrFrameTooLarge   = errors.New("declared body length over limit")
)

// DecodeHeader 解析前 5 字节报文头；不足 5 字节返回 ErrMalformedHeader
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrMalformedHeader
	}
	return Header{
		Cmd:    Command(b[0]),
		MsgID:  binary.BigEndian.Uint16(b[1:3]),
		Length: binary.BigEndian.Uint16(b[3:5]),
	}, nil
}

// Parse 解析恰好一帧（raw 长度必须等于头部声明的整帧长度）
func Parse(raw []byte) (*Frame, error) {
	h, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	total := h.FrameLen()
	if len(raw) < total {
		return nil, ErrShortFrame
	}
	return frameFrom(h, raw[:total]), nil
}

// frameFrom 由头部与整帧字节构造 Frame，body 复制一份，避免引用解码缓冲
func frameFrom(h Header, raw []byte) *Frame {
	fr := &Frame{Cmd: h.Cmd, MsgID: h.MsgID}
	if h.Cmd == CmdResponse {
		fr.Status = Status(h.Length)
		return fr
	}
	if n := len(raw) - HeaderLen; n > 0 {
		fr.Body = make([]byte, n)
		copy(fr.Body, raw[HeaderLen:])
	}
	return fr
}

// StreamDecoder 处理半包/粘包的流式解码器。
// 无论传输层如何切分字节，输出的帧序列都相同；缓冲中最多残留一个不完整帧。
type StreamDecoder struct {
	buf        []byte
	maxBodyLen int
}

// NewStreamDecoder 创建流式解码器；maxBodyLen<=0 时不额外限制（长度字段上限 65535）
func NewStreamDecoder(maxBodyLen int) *StreamDecoder {
	if maxBodyLen <= 0 || maxBodyLen > MaxBodyLen {
		maxBodyLen = MaxBodyLen
	}
	return &StreamDecoder{maxBodyLen: maxBodyLen}
}

// Feed 追加数据并尽可能解出多帧。
// 返回 ErrFrameTooLarge 时表示流已不可恢复（调用方应关闭连接），已解出的帧仍然返回。
func (d *StreamDecoder) Feed(p []byte) ([]*Frame, error) {
	if len(p) == 0 {
		return nil, nil
	}
	d.buf = append(d.buf, p...)

	var frames []*Frame
	off := 0
	for len(d.buf)-off >= HeaderLen {
		h, _ := DecodeHeader(d.buf[off:])
		if h.Cmd != CmdResponse && int(h.Length) > d.maxBodyLen {
			d.compact(off)
			return frames, ErrFrameTooLarge
		}
		total := h.FrameLen()
		if len(d.buf)-off < total {
			// 半包，等待更多
			break
		}
		frames = append(frames, frameFrom(h, d.buf[off:off+total]))
		off += total
	}
	d.compact(off)
	return frames, nil
}

// compact 丢弃已消费的前 n 字节，剩余部分移到缓冲区头部
func (d *StreamDecoder) compact(n int) {
	if n == 0 {
		return
	}
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}

// Buffered 当前缓冲的未成帧字节数
func (d *StreamDecoder) Buffered() int { return len(d.buf) }

// Reset 清空缓冲（连接重建时使用）
func (d *StreamDecoder) Reset() { d.buf = d.buf[:0] }
