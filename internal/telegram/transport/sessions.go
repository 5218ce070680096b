package transport

import "sync"

// Sessions 进程级的活跃委托会话注册表
// 显式注入到需要它的组件中，避免隐藏的全局耦合，测试时可用假实现填充。
type Sessions struct {
	mu      sync.RWMutex
	clients map[int64]UserClient
}

// NewSessions 创建会话注册表
func NewSessions() *Sessions {
	return &Sessions{
		clients: make(map[int64]UserClient),
	}
}

// Put 注册一个会话（键为会话所属账号 ID）
func (s *Sessions) Put(client UserClient) {
	s.mu.Lock()
	s.clients[client.ID()] = client
	s.mu.Unlock()
}

// Get 按账号 ID 取会话
func (s *Sessions) Get(accountID int64) (UserClient, bool) {
	s.mu.RLock()
	client, ok := s.clients[accountID]
	s.mu.RUnlock()
	return client, ok
}

// Remove 注销会话
func (s *Sessions) Remove(accountID int64) {
	s.mu.Lock()
	delete(s.clients, accountID)
	s.mu.Unlock()
}

// Len 当前注册的会话数
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
