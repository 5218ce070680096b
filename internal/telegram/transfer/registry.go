package transfer

import (
	"sync"

	"savebot/internal/telegram/models"
)

// Registry 进程内的转存任务镜像
//
// 准入判定和记录登记在同一把锁下完成，保证每个用户同一时刻
// 至多持有一个活跃批次。取消标记也先落在镜像里，传输循环的
// 进度回调轮询镜像即可感知取消，不必每次查库。
type Registry struct {
	mu        sync.Mutex
	active    map[int64]struct{}          // 用户 ID -> 活跃批次占位
	transfers map[int64]*models.Transfer  // 任务 ID -> 记录镜像
}

// NewRegistry 创建任务镜像
func NewRegistry() *Registry {
	return &Registry{
		active:    make(map[int64]struct{}),
		transfers: make(map[int64]*models.Transfer),
	}
}

// Acquire 占用用户的批次名额
// 用户已有活跃批次时返回 false，检查与占用是原子的。
func (r *Registry) Acquire(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.active[userID]; busy {
		return false
	}
	r.active[userID] = struct{}{}
	return true
}

// Release 释放用户的批次名额
func (r *Registry) Release(userID int64) {
	r.mu.Lock()
	delete(r.active, userID)
	r.mu.Unlock()
}

// HasActive 用户是否有进行中的批次
func (r *Registry) HasActive(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.active[userID]
	return busy
}

// Add 登记任务记录
func (r *Registry) Add(t *models.Transfer) {
	r.mu.Lock()
	r.transfers[t.ID] = t
	r.mu.Unlock()
}

// Get 按任务 ID 取记录
func (r *Registry) Get(id int64) (*models.Transfer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	return t, ok
}

// SetLinkIndex 更新记录镜像的当前链接下标
func (r *Registry) SetLinkIndex(id int64, index int) {
	r.mu.Lock()
	if t, ok := r.transfers[id]; ok {
		t.LinkIndex = index
	}
	r.mu.Unlock()
}

// Remove 移除任务记录
func (r *Registry) Remove(id int64) {
	r.mu.Lock()
	delete(r.transfers, id)
	r.mu.Unlock()
}

// Cancel 标记任务为已取消
// 任务不存在时返回 false；对已取消的任务重复调用是无害的。
func (r *Registry) Cancel(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transfers[id]
	if !ok {
		return false
	}
	t.Status = models.TransferStatusCancelled
	return true
}

// CancelAllForUser 取消用户的全部任务，返回被取消的任务 ID
func (r *Registry) CancelAllForUser(userID int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for id, t := range r.transfers {
		if t.UserID == userID && !t.IsCancelled() {
			t.Status = models.TransferStatusCancelled
			ids = append(ids, id)
		}
	}
	return ids
}

// IsCancelled 任务是否已被取消
func (r *Registry) IsCancelled(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.transfers[id]
	return ok && t.IsCancelled()
}

// Snapshot 返回全部在册记录的副本列表
func (r *Registry) Snapshot() []*models.Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Transfer, 0, len(r.transfers))
	for _, t := range r.transfers {
		out = append(out, t)
	}
	return out
}
