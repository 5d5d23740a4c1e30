package blynk

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncode_Layout(t *testing.T) {
	raw, err := Encode(CmdHardware, 0x0102, "vw", "1", "123.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{20, 0x01, 0x02, 0x00, 0x0A, 'v', 'w', 0, '1', 0, '1', '2', '3', '.', '5'}
	if !bytes.Equal(raw, want) {
		t.Fatalf("unexpected bytes:\n got %v\nwant %v", raw, want)
	}
}

func TestEncode_PingHasEmptyBody(t *testing.T) {
	raw, err := Encode(CmdPing, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(raw, []byte{6, 0, 9, 0, 0}) {
		t.Fatalf("unexpected ping bytes: %v", raw)
	}
}

func TestEncode_Login(t *testing.T) {
	raw, _ := Encode(CmdLogin, LoginMsgID, "token-abc")
	if raw[0] != byte(CmdLogin) || raw[1] != 0 || raw[2] != 1 {
		t.Fatalf("unexpected login header: %v", raw[:5])
	}
	if string(raw[5:]) != "token-abc" {
		t.Fatalf("unexpected login body: %q", raw[5:])
	}
}

func TestEncode_TooLarge(t *testing.T) {
	if _, err := Encode(CmdHardware, 1, strings.Repeat("x", MaxBodyLen+1)); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	// 分隔符也计入长度
	if _, err := Encode(CmdHardware, 1, strings.Repeat("x", MaxBodyLen-1), "y"); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge with separator, got %v", err)
	}
}

func TestEncodeResponse(t *testing.T) {
	raw := EncodeResponse(0x0203, StatusOK)
	if !bytes.Equal(raw, []byte{0, 0x02, 0x03, 0x00, 0xC8}) {
		t.Fatalf("unexpected response bytes: %v", raw)
	}
}

func TestAppendFrame_Multiple(t *testing.T) {
	var buf []byte
	var err error
	buf, err = AppendFrame(buf, CmdSetWidgetProperty, 5, "1", "label", "temp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf, err = AppendFrame(buf, CmdSetWidgetProperty, 6, "1", "color", "#FF0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frs, err := NewStreamDecoder(0).Feed(buf)
	if err != nil || len(frs) != 2 {
		t.Fatalf("expected 2 frames, got %d (%v)", len(frs), err)
	}
	if frs[1].MsgID != 6 || !reflect.DeepEqual(frs[1].Tokens(), []string{"1", "color", "#FF0000"}) {
		t.Fatalf("unexpected second frame: %+v", frs[1])
	}
}

// 编码后再解码应还原命令字、msgId 与各参数
func TestEncodeParse_RoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		cmd   Command
		id    uint16
		parts []string
	}{
		{"virtual write", CmdHardware, 1, []string{"vw", "1", "123.5"}},
		{"multi value", CmdHardware, 65535, []string{"vw", "12", "a", "b", "", "d"}},
		{"bridge", CmdBridge, 300, []string{"0", "dw", "5", "1"}},
		{"property", CmdSetWidgetProperty, 2, []string{"4", "label", "Temperature"}},
		{"login", CmdLogin, 1, []string{"abcdef0123456789"}},
		{"ping", CmdPing, 42, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Encode(tc.cmd, tc.id, tc.parts...)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			fr, err := Parse(raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if fr.Cmd != tc.cmd || fr.MsgID != tc.id {
				t.Fatalf("header mismatch: %+v", fr)
			}
			if !reflect.DeepEqual(fr.Tokens(), tc.parts) {
				t.Fatalf("tokens mismatch: got %q want %q", fr.Tokens(), tc.parts)
			}
		})
	}
}

func TestCommandAndStatusString(t *testing.T) {
	if CmdHardware.String() != "hardware" || Command(99).String() != "cmd_99" {
		t.Fatalf("unexpected command names")
	}
	if StatusOK.String() != "ok" || Status(999).String() != "status_999" {
		t.Fatalf("unexpected status names")
	}
	if !StatusOK.Authorized() || !StatusUserAlreadyRegistered.Authorized() || StatusInvalidToken.Authorized() {
		t.Fatalf("unexpected authorized mapping")
	}
}
