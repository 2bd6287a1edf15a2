// Package host 把音源事件投递给宿主，并把宿主的解析请求转交给音源
package host

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/chengxue2020/Cat-ports/logger"
	"github.com/chengxue2020/Cat-ports/model"
)

// Resolver 处理宿主的解析请求
type Resolver interface {
	Handle(ctx context.Context, env *model.RequestEnvelope) (string, error)
}

// 最近一次的这些事件会补发给后连上的客户端
var retained = map[MessageType]bool{
	MsgTypeInited:      true,
	MsgTypeUpdateAlert: true,
}

type broadcastMessage struct {
	Type    MessageType
	Message []byte
}

// Hub 宿主 WebSocket 连接管理中心
type Hub struct {
	resolver Resolver

	clients map[*Client]bool
	last    map[MessageType][]byte

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu   sync.RWMutex
	done chan struct{}
	stop sync.Once
}

// NewHub 创建 Hub
func NewHub(resolver Resolver) *Hub {
	return &Hub{
		resolver:   resolver,
		clients:    make(map[*Client]bool),
		last:       make(map[MessageType][]byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.broadcastAll(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	h.stop.Do(func() { close(h.done) })
}

// Send 向所有宿主投递事件
func (h *Hub) Send(name model.EventName, payload any) {
	msg, err := newEventMessage(MessageType(name), payload)
	if err != nil {
		logger.Error("[Host] 事件编码失败", logger.String("event", string(name)), logger.ErrorField(err))
		return
	}
	data, err := encode(msg)
	if err != nil {
		logger.Error("[Host] 事件编码失败", logger.String("event", string(name)), logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{Type: msg.Type, Message: data}:
	case <-h.done:
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	for _, t := range []MessageType{MsgTypeInited, MsgTypeUpdateAlert} {
		if data, ok := h.last[t]; ok {
			select {
			case client.Send <- data:
			default:
			}
		}
	}

	logger.Info("[Host] 客户端已连接",
		logger.String("client", client.ID),
		logger.Int("clients", len(h.clients)))
}

// removeClient 需要持有锁
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.close()

	logger.Info("[Host] 客户端已断开",
		logger.String("client", client.ID),
		logger.Int("clients", len(h.clients)))
}

func (h *Hub) broadcastAll(msg *broadcastMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if retained[msg.Type] {
		h.last[msg.Type] = msg.Message
	}

	for client := range h.clients {
		select {
		case client.Send <- msg.Message:
		default:
			// 发送缓冲区满，移除客户端
			h.removeClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]bool)
}

// HandleMessage 处理客户端发来的消息
// 每个解析请求在独立协程里完成，同一连接上的请求可以重叠
func (h *Hub) HandleMessage(ctx context.Context, client *Client, msg *Message) {
	switch msg.Type {
	case MsgTypeRequest:
		var env model.RequestEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			client.SendMessage(&Message{Type: MsgTypeResponse, ID: msg.ID, Error: "请求参数不完整"})
			return
		}
		go h.resolve(ctx, client, msg.ID, &env)

	default:
		logger.Warn("[Host] 未知消息类型",
			logger.String("client", client.ID),
			logger.String("type", string(msg.Type)))
		client.SendMessage(&Message{Type: MsgTypeError, ID: msg.ID, Error: "unknown message type: " + string(msg.Type)})
	}
}

func (h *Hub) resolve(ctx context.Context, client *Client, id string, env *model.RequestEnvelope) {
	reply := &Message{Type: MsgTypeResponse, ID: id}

	url, err := h.resolver.Handle(ctx, env)
	if err != nil {
		reply.Error = err.Error()
		reply.Data, _ = json.Marshal(model.ResolveResult{Success: false, Error: err.Error()})
	} else {
		reply.Data, _ = json.Marshal(model.ResolveResult{Success: true, URL: url})
	}

	client.SendMessage(reply)
}
