package db

import "gorm.io/gorm"

// StateSnapshot 以键值槽的形式存储完整状态文档。
// 整个应用只占用一个固定 key 的槽位，Value 为序列化后的 JSON 文档。
type StateSnapshot struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (StateSnapshot) TableName() string {
	return "state_snapshots"
}

// SnapshotKeyTrackerState 是状态文档占用的固定槽位名。
const SnapshotKeyTrackerState = "tracker_state"
