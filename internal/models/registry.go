package models

import "gorm.io/datatypes"

// Registry 镜像仓库配置
type Registry struct {
	ID        string                      `gorm:"primaryKey" json:"id"`
	Name      string                      `gorm:"uniqueIndex:ux_registry_name" json:"name"` // 显示名称
	URL       string                      `json:"url"`                                      // 仓库地址
	Username  string                      `json:"username"`
	Password  string                      `json:"-"` // 不通过 API 返回
	Insecure  bool                        `json:"insecure"` // 是否允许 HTTP/自签名证书
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt int64                       `json:"createdAt"` // 毫秒时间戳
	UpdatedAt int64                       `json:"updatedAt"`
}

func (Registry) TableName() string {
	return "registries"
}
