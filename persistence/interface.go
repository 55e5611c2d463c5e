// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/arena/models"
)

// Database 数据库接口
// The room protocol never touches this directly; the social and payment
// services call it, and their failures degrade without reaching the
// protocol.
type Database interface {
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(username string) (*models.User, error)
	GetFriendRequests(userID int64) ([]models.FriendRequest, error)
	AcceptFriendRequest(requestID int64) error
	GetUserFriends(userID int64) ([]models.User, error)
	RecordTransaction(tx *models.Transaction) error
	Close() error
}

// 错误定义
var (
	ErrNotFound = fmt.Errorf("record not found")
)
