package host

import (
	"encoding/json"
	"sync"

	"github.com/chengxue2020/Cat-ports/logger"
	"github.com/chengxue2020/Cat-ports/model"
)

// LogSender 把事件写进日志，命令行模式下没有宿主连接时使用
type LogSender struct {
	mu     sync.Mutex
	events []model.EventName
}

// Send 记录事件
func (s *LogSender) Send(name model.EventName, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("[Host] 事件编码失败", logger.String("event", string(name)), logger.ErrorField(err))
		return
	}

	s.mu.Lock()
	s.events = append(s.events, name)
	s.mu.Unlock()

	logger.Info("[Host] 事件", logger.String("event", string(name)), logger.String("payload", string(data)))
}

// Events 已记录的事件名
func (s *LogSender) Events() []model.EventName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.EventName(nil), s.events...)
}
