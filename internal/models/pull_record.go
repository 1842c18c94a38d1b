package models

// PullRecord 镜像拉取记录
type PullRecord struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Ref        string `gorm:"index:idx_pull_ref" json:"ref"` // 镜像引用
	Status     string `json:"status"`                        // success / failed / canceled
	Error      string `json:"error,omitempty"`
	StartedAt  int64  `json:"startedAt"`                           // 毫秒时间戳
	FinishedAt int64  `json:"finishedAt"`                          // 毫秒时间戳
	CreatedAt  int64  `gorm:"index:idx_pull_created" json:"createdAt"`
}

func (PullRecord) TableName() string {
	return "pull_records"
}
