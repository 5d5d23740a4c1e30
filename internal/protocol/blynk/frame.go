package blynk

import (
	"bytes"
	"fmt"
)

// Frame 一条完整的协议报文
// 布局（大端）：
// cmd[1] | msgId[2] | bodyLen[2] | body[bodyLen]
// RESPONSE 例外：bytes 3..4 为状态码，无 body，固定 5 字节
type Frame struct {
	Cmd    Command
	MsgID  uint16
	Status Status // 仅 RESPONSE 有效
	Body   []byte
}

// HeaderLen 报文头长度
const HeaderLen = 5

// LoginMsgID 登录请求固定使用的消息ID
const LoginMsgID uint16 = 1

// MaxBodyLen 长度字段能表达的最大 body
const MaxBodyLen = 0xFFFF

// Separator body 内各参数之间的分隔符
const Separator = 0x00

// Command 命令字
type Command uint8

const (
	CmdResponse          Command = 0
	CmdRegister          Command = 1
	CmdLogin             Command = 2
	CmdPing              Command = 6
	CmdTweet             Command = 12
	CmdEmail             Command = 13
	CmdPushNotification  Command = 14
	CmdBridge            Command = 15
	CmdHardwareSync      Command = 16
	CmdInternal          Command = 17
	CmdSMS               Command = 18
	CmdSetWidgetProperty Command = 19
	CmdHardware          Command = 20
)

var commandNames = map[Command]string{
	CmdResponse:          "response",
	CmdRegister:          "register",
	CmdLogin:             "login",
	CmdPing:              "ping",
	CmdTweet:             "tweet",
	CmdEmail:             "email",
	CmdPushNotification:  "push_notification",
	CmdBridge:            "bridge",
	CmdHardwareSync:      "hardware_sync",
	CmdInternal:          "internal",
	CmdSMS:               "sms",
	CmdSetWidgetProperty: "set_widget_property",
	CmdHardware:          "hardware",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("cmd_%d", uint8(c))
}

// Status RESPONSE 报文携带的状态码
type Status uint16

const (
	StatusQuotaLimit                Status = 1
	StatusIllegalCommand            Status = 2
	StatusUserNotRegistered         Status = 3
	StatusUserAlreadyRegistered     Status = 4
	StatusUserNotAuthenticated      Status = 5
	StatusNotAllowed                Status = 6
	StatusDeviceNotInNetwork        Status = 7
	StatusNoActiveDashboard         Status = 8
	StatusInvalidToken              Status = 9
	StatusIllegalCommandBody        Status = 11
	StatusGetGraphData              Status = 12
	StatusNotificationInvalidBody   Status = 13
	StatusNotificationNotAuthorized Status = 14
	StatusNotificationError         Status = 15
	StatusTimeout                   Status = 16
	StatusNoData                    Status = 17
	StatusDeviceWentOffline         Status = 18
	StatusServerError               Status = 19
	StatusNotSupportedVersion       Status = 20
	StatusEnergyLimit               Status = 21
	StatusOK                        Status = 200
)

var statusNames = map[Status]string{
	StatusQuotaLimit:                "quota_limit",
	StatusIllegalCommand:            "illegal_command",
	StatusUserNotRegistered:         "user_not_registered",
	StatusUserAlreadyRegistered:     "user_already_registered",
	StatusUserNotAuthenticated:      "user_not_authenticated",
	StatusNotAllowed:                "not_allowed",
	StatusDeviceNotInNetwork:        "device_not_in_network",
	StatusNoActiveDashboard:         "no_active_dashboard",
	StatusInvalidToken:              "invalid_token",
	StatusIllegalCommandBody:        "illegal_command_body",
	StatusGetGraphData:              "get_graph_data",
	StatusNotificationInvalidBody:   "notification_invalid_body",
	StatusNotificationNotAuthorized: "notification_not_authorized",
	StatusNotificationError:         "notification_error",
	StatusTimeout:                   "timeout",
	StatusNoData:                    "no_data",
	StatusDeviceWentOffline:         "device_went_offline",
	StatusServerError:               "server_error",
	StatusNotSupportedVersion:       "not_supported_version",
	StatusEnergyLimit:               "energy_limit",
	StatusOK:                        "ok",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status_%d", uint16(s))
}

// Authorized 登录应答是否表示鉴权通过（OK 或 已注册）
func (s Status) Authorized() bool {
	return s == StatusOK || s == StatusUserAlreadyRegistered
}

// Header 报文头
// Length 对 RESPONSE 而言保存的是状态码，不是长度
type Header struct {
	Cmd    Command
	MsgID  uint16
	Length uint16
}

// FrameLen 整帧长度（RESPONSE 固定为 HeaderLen）
func (h Header) FrameLen() int {
	if h.Cmd == CmdResponse {
		return HeaderLen
	}
	return HeaderLen + int(h.Length)
}

// Tokens 按 NUL 拆分 body
func (f *Frame) Tokens() []string {
	if len(f.Body) == 0 {
		return nil
	}
	parts := bytes.Split(f.Body, []byte{Separator})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}
