package sqlstore

import "time"

// KVRecord 是一行 key -> value
// Inode 记录会被原地覆盖，其余记录只写一次
type KVRecord struct {
	Key       string `gorm:"primaryKey;type:varchar(255)"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName 强制指定表名
func (KVRecord) TableName() string {
	return "kv_records"
}
