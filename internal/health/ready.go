package health

import "sync"

// Readiness 启动阶段的就绪标记：登记的组件全部就绪后 /readyz 才返回 200
type Readiness struct {
	mu    sync.RWMutex
	state map[string]bool
}

func New() *Readiness { return &Readiness{state: make(map[string]bool)} }

// Expect 登记需要等待的组件（初始未就绪）
func (r *Readiness) Expect(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		if _, ok := r.state[n]; !ok {
			r.state[n] = false
		}
	}
}

// Set 更新组件就绪状态
func (r *Readiness) Set(name string, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[name] = ready
}

// Ready 所有登记组件均就绪
func (r *Readiness) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ok := range r.state {
		if !ok {
			return false
		}
	}
	return true
}
