package model

// EventName 发往宿主的事件名
type EventName string

const (
	EventInited      EventName = "inited"
	EventUpdateAlert EventName = "updateAlert"
)

// SourceInfo 单个平台在宿主界面上的描述
type SourceInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Actions  []string `json:"actions"`
	Qualitys []string `json:"qualitys"`
}

// InitedEvent 初始化完成事件
type InitedEvent struct {
	Status       bool                  `json:"status"`
	OpenDevTools bool                  `json:"openDevTools"`
	Sources      map[string]SourceInfo `json:"sources"`
}

// UpdateAlertEvent 更新提示事件
type UpdateAlertEvent struct {
	Log         string `json:"log"`
	UpdateURL   string `json:"updateUrl"`
	ConfirmText string `json:"confirmText,omitempty"`
	CancelText  string `json:"cancelText,omitempty"`
}
