package host

import (
	"encoding/json"
	"time"
)

// MessageType 消息类型
type MessageType string

const (
	MsgTypeInited      MessageType = "inited"      // 音源就绪
	MsgTypeUpdateAlert MessageType = "updateAlert" // 更新提醒
	MsgTypeRequest     MessageType = "request"     // 宿主发起解析
	MsgTypeResponse    MessageType = "response"    // 解析结果
	MsgTypePing        MessageType = "ping"        // 心跳
	MsgTypePong        MessageType = "pong"        // 心跳响应
	MsgTypeError       MessageType = "error"       // 错误消息
)

// Message WebSocket 消息结构
// 请求和响应通过 ID 关联
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func encode(msg *Message) ([]byte, error) {
	msg.Timestamp = time.Now().UnixMilli()
	return json.Marshal(msg)
}

func newEventMessage(t MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: t, Data: data}, nil
}
