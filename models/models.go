// models/models.go
package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendRequest 好友请求模型
type FriendRequest struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Status     string    `json:"status"` // pending/accepted
	CreatedAt  time.Time `json:"created_at"`
}

// Transaction 货币流水模型
type Transaction struct {
	ID             int64     `json:"id"`
	PlayerID       string    `json:"player_id"`
	CounterpartyID string    `json:"counterparty_id,omitempty"`
	Amount         float64   `json:"amount"`
	Source         string    `json:"source"` // kill/respawn/topup
	CreatedAt      time.Time `json:"created_at"`
}
