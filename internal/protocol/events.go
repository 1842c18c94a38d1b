package protocol

// UnknownValue 事件字段缺失时的占位值
const UnknownValue = "unknown"

// LifecycleEvent 运行时生命周期事件的线格式
type LifecycleEvent struct {
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	Actor        LifecycleActor `json:"actor"`
	Time         int64          `json:"time"` // 毫秒时间戳
	Scope        string         `json:"scope"`
}

// LifecycleActor 事件主体
type LifecycleActor struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
}

// 拉取进度阶段
const (
	PhasePullStart    = "pull-start"
	PhasePullProgress = "pull-progress"
	PhasePullComplete = "pull-complete"
)

// PullProgress 镜像拉取进度的线格式
// 无论上游输出多少行进度，会话保证 start -> progress* -> complete 三段契约
type PullProgress struct {
	Phase          string          `json:"phase"`
	ResourceRef    string          `json:"resourceRef"`
	ID             string          `json:"id,omitempty"`
	Status         string          `json:"status,omitempty"`
	Progress       string          `json:"progress,omitempty"`
	ProgressDetail *ProgressDetail `json:"progressDetail,omitempty"`
	Timestamp      int64           `json:"timestamp"` // 毫秒时间戳
}

// ProgressDetail 进度明细（字节数）
type ProgressDetail struct {
	Current int64 `json:"current"`
	Total   int64 `json:"total"`
}
