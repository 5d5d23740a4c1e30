package blynk

import (
	"bytes"
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func mustEncode(t *testing.T, cmd Command, msgID uint16, parts ...string) []byte {
	t.Helper()
	b, err := Encode(cmd, msgID, parts...)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

// sampleStream 混合 RESPONSE、空 body、多参数 body 的报文流
func sampleStream(t *testing.T) ([]byte, []*Frame) {
	t.Helper()
	var stream []byte
	var want []*Frame

	add := func(raw []byte) {
		fr, err := Parse(raw)
		if err != nil {
			t.Fatalf("parse sample: %v", err)
		}
		stream = append(stream, raw...)
		want = append(want, fr)
	}

	add(EncodeResponse(1, StatusOK))
	add(mustEncode(t, CmdHardware, 7, "vw", "1", "123.5"))
	add(mustEncode(t, CmdPing, 8))
	add(EncodeResponse(9, StatusIllegalCommand))
	add(mustEncode(t, CmdBridge, 10, "dw", "5", "1"))
	add(mustEncode(t, CmdHardware, 11, "vw", "3", "a", "b", "c"))
	add(EncodeResponse(12, StatusOK))
	return stream, want
}

func TestDecodeHeader(t *testing.T) {
	raw := mustEncode(t, CmdHardware, 0x1234, "vw", "1", "2")
	h, err := DecodeHeader(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Cmd != CmdHardware || h.MsgID != 0x1234 || h.Length != 6 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if h.FrameLen() != len(raw) {
		t.Fatalf("frame len %d, want %d", h.FrameLen(), len(raw))
	}

	if _, err := DecodeHeader(raw[:4]); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeHeader_ResponseHasNoLength(t *testing.T) {
	h, err := DecodeHeader(EncodeResponse(1, StatusOK))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Length != 200 {
		t.Fatalf("status should sit in length field, got %d", h.Length)
	}
	if h.FrameLen() != HeaderLen {
		t.Fatalf("response frame len %d, want %d", h.FrameLen(), HeaderLen)
	}
}

func TestParse_Response(t *testing.T) {
	fr, err := Parse(EncodeResponse(1, StatusUserNotAuthenticated))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr.Cmd != CmdResponse || fr.MsgID != 1 || fr.Status != StatusUserNotAuthenticated || fr.Body != nil {
		t.Fatalf("unexpected frame: %+v", fr)
	}
}

func TestParse_Short(t *testing.T) {
	raw := mustEncode(t, CmdHardware, 2, "vw", "1", "2")
	if _, err := Parse(raw[:len(raw)-1]); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("expected ErrShortFrame, got %v", err)
	}
}

func TestStreamDecoder_WholeStream(t *testing.T) {
	stream, want := sampleStream(t)
	d := NewStreamDecoder(0)
	got, err := d.Feed(stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frames mismatch:\n got %+v\nwant %+v", got, want)
	}
	if d.Buffered() != 0 {
		t.Fatalf("buffer should be empty, got %d", d.Buffered())
	}
}

func TestStreamDecoder_ByteByByte(t *testing.T) {
	stream, want := sampleStream(t)
	d := NewStreamDecoder(0)
	var got []*Frame
	for i := range stream {
		frs, err := d.Feed(stream[i : i+1])
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
		got = append(got, frs...)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frames mismatch:\n got %+v\nwant %+v", got, want)
	}
}

// 任意切分方式得到的帧序列必须与整体解码一致
func TestStreamDecoder_ChunkBoundaryInvariance(t *testing.T) {
	stream, want := sampleStream(t)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 500; round++ {
		d := NewStreamDecoder(0)
		var got []*Frame
		for off := 0; off < len(stream); {
			n := 1 + rng.Intn(len(stream)-off)
			frs, err := d.Feed(stream[off : off+n])
			if err != nil {
				t.Fatalf("round %d: unexpected error: %v", round, err)
			}
			got = append(got, frs...)
			off += n
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d: frames mismatch", round)
		}
		if d.Buffered() != 0 {
			t.Fatalf("round %d: leftover %d bytes", round, d.Buffered())
		}
	}
}

func TestStreamDecoder_KeepsPartial(t *testing.T) {
	a := mustEncode(t, CmdHardware, 3, "vw", "1", "10")
	b := mustEncode(t, CmdHardware, 4, "vw", "2", "20")
	stream := append(append([]byte{}, a...), b[:6]...)

	d := NewStreamDecoder(0)
	frs, err := d.Feed(stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frs) != 1 || frs[0].MsgID != 3 {
		t.Fatalf("expected first frame only, got %+v", frs)
	}
	if d.Buffered() != 6 {
		t.Fatalf("partial frame should stay buffered, got %d", d.Buffered())
	}

	frs, err = d.Feed(b[6:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frs) != 1 || frs[0].MsgID != 4 || !bytes.Equal(frs[0].Body, b[5:]) {
		t.Fatalf("unexpected second frame: %+v", frs)
	}
}

func TestStreamDecoder_BodyIsCopied(t *testing.T) {
	d := NewStreamDecoder(0)
	raw := mustEncode(t, CmdHardware, 3, "vw", "1", "10")
	frs, _ := d.Feed(raw)
	// 后续数据写入缓冲不应影响已返回帧
	_, _ = d.Feed(mustEncode(t, CmdHardware, 4, "xx", "9", "99"))
	if string(frs[0].Body) != "vw\x001\x0010" {
		t.Fatalf("body was clobbered: %q", frs[0].Body)
	}
}

func TestStreamDecoder_TooLarge(t *testing.T) {
	d := NewStreamDecoder(4)
	ok := mustEncode(t, CmdPing, 1)
	big := mustEncode(t, CmdHardware, 2, "vw", "1", "12345")
	frs, err := d.Feed(append(ok, big...))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	if len(frs) != 1 || frs[0].Cmd != CmdPing {
		t.Fatalf("frames before the bad header should be returned, got %+v", frs)
	}
}

func TestStreamDecoder_Reset(t *testing.T) {
	d := NewStreamDecoder(0)
	_, _ = d.Feed([]byte{byte(CmdHardware), 0, 1})
	d.Reset()
	if d.Buffered() != 0 {
		t.Fatalf("reset should drop buffered bytes")
	}
	frs, err := d.Feed(EncodeResponse(1, StatusOK))
	if err != nil || len(frs) != 1 {
		t.Fatalf("decoder unusable after reset: %v %+v", err, frs)
	}
}
