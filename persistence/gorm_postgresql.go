// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/arena/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormUser{},
		&models.GormFriendRequest{},
		&models.GormFriendship{},
		&models.GormTransaction{},
	)
}

// GetUserByUsername 按用户名查询用户
func (p *GormPostgreSQL) GetUserByUsername(username string) (*models.User, error) {
	var user models.GormUser
	if err := p.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &models.User{
		ID:        int64(user.ID),
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

// CreateUser 创建用户
func (p *GormPostgreSQL) CreateUser(username string) (*models.User, error) {
	user := models.GormUser{Username: username}
	if err := p.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &models.User{
		ID:        int64(user.ID),
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, nil
}

// GetFriendRequests 查询待处理的好友请求
func (p *GormPostgreSQL) GetFriendRequests(userID int64) ([]models.FriendRequest, error) {
	var rows []models.GormFriendRequest
	err := p.db.Where("to_user_id = ? AND status = ?", userID, "pending").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	requests := make([]models.FriendRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, models.FriendRequest{
			ID:         int64(row.ID),
			FromUserID: row.FromUserID,
			ToUserID:   row.ToUserID,
			Status:     row.Status,
			CreatedAt:  row.CreatedAt,
		})
	}
	return requests, nil
}

// AcceptFriendRequest 接受好友请求：更新状态并写入双向好友关系
func (p *GormPostgreSQL) AcceptFriendRequest(requestID int64) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var request models.GormFriendRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if request.Status != "pending" {
			return fmt.Errorf("friend request %d is not pending", requestID)
		}

		if err := tx.Model(&request).Update("status", "accepted").Error; err != nil {
			return err
		}

		friendships := []models.GormFriendship{
			{UserID: request.FromUserID, FriendID: request.ToUserID},
			{UserID: request.ToUserID, FriendID: request.FromUserID},
		}
		return tx.Create(&friendships).Error
	})
}

// GetUserFriends 查询用户好友列表
func (p *GormPostgreSQL) GetUserFriends(userID int64) ([]models.User, error) {
	var users []models.GormUser
	err := p.db.
		Joins("JOIN gorm_friendships ON gorm_friendships.friend_id = gorm_users.id").
		Where("gorm_friendships.user_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	friends := make([]models.User, 0, len(users))
	for _, user := range users {
		friends = append(friends, models.User{
			ID:        int64(user.ID),
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		})
	}
	return friends, nil
}

// RecordTransaction 记录货币流水
func (p *GormPostgreSQL) RecordTransaction(tx *models.Transaction) error {
	row := models.GormTransaction{
		PlayerID:       tx.PlayerID,
		CounterpartyID: tx.CounterpartyID,
		Amount:         tx.Amount,
		Source:         tx.Source,
	}
	return p.db.Create(&row).Error
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
