// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormUser 用户模型
type GormUser struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null"`
}

// GormFriendRequest 好友请求模型
type GormFriendRequest struct {
	gorm.Model
	FromUserID int64  `gorm:"index;not null"`
	ToUserID   int64  `gorm:"index;not null"`
	Status     string `gorm:"not null;default:pending"`
}

// GormFriendship 好友关系模型，每段关系存两行（双向查询）
type GormFriendship struct {
	gorm.Model
	UserID   int64 `gorm:"index;not null"`
	FriendID int64 `gorm:"not null"`
}

// GormTransaction 货币流水模型
type GormTransaction struct {
	gorm.Model
	PlayerID       string  `gorm:"index;not null"`
	CounterpartyID string  `gorm:"index"`
	Amount         float64 `gorm:"not null"`
	Source         string  `gorm:"not null"`
}
