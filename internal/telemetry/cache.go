package telemetry

import "sync"

// PrevCache 按容器保留上一次原始快照
// 由持有它的采样会话独占，会话结束随之释放，不做进程级共享
type PrevCache struct {
	mu      sync.Mutex
	samples map[string]RawSample
}

// NewPrevCache 创建快照缓存
func NewPrevCache() *PrevCache {
	return &PrevCache{samples: make(map[string]RawSample)}
}

// Swap 存入当前快照并返回上一次快照，首次调用返回 nil
func (c *PrevCache) Swap(containerID string, cur RawSample) *RawSample {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.samples[containerID]
	c.samples[containerID] = cur
	if !ok {
		return nil
	}
	return &prev
}

// Evict 删除指定容器的快照
func (c *PrevCache) Evict(containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.samples, containerID)
}

// Retain 只保留给定容器集合的快照，其余全部清除
// 聚合采样每轮调用，避免容器频繁创建销毁时缓存无限增长
func (c *PrevCache) Retain(ids map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.samples {
		if _, ok := ids[id]; !ok {
			delete(c.samples, id)
		}
	}
}

// Len 当前缓存的快照数量
func (c *PrevCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}
