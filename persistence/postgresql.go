// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/arena/models"
)

// PostgreSQL 数据库实现 (database/sql)
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
            id SERIAL PRIMARY KEY,
            from_user_id BIGINT NOT NULL,
            to_user_id BIGINT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS friendships (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL,
            friend_id BIGINT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id SERIAL PRIMARY KEY,
            player_id TEXT NOT NULL,
            counterparty_id TEXT,
            amount DOUBLE PRECISION NOT NULL,
            source TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_to_user
            ON friend_requests (to_user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_user
            ON friendships (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_player
            ON transactions (player_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetUserByUsername 按用户名查询用户
func (p *PostgreSQL) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := p.db.QueryRow(
		`SELECT id, username, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser 创建用户
func (p *PostgreSQL) CreateUser(username string) (*models.User, error) {
	var user models.User
	err := p.db.QueryRow(
		`INSERT INTO users (username) VALUES ($1) RETURNING id, username, created_at`,
		username,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetFriendRequests 查询待处理的好友请求
func (p *PostgreSQL) GetFriendRequests(userID int64) ([]models.FriendRequest, error) {
	rows, err := p.db.Query(
		`SELECT id, from_user_id, to_user_id, status, created_at
         FROM friend_requests WHERE to_user_id = $1 AND status = 'pending'`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// AcceptFriendRequest 接受好友请求：更新状态并写入双向好友关系
func (p *PostgreSQL) AcceptFriendRequest(requestID int64) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var fromID, toID int64
	err = tx.QueryRow(
		`UPDATE friend_requests SET status = 'accepted'
         WHERE id = $1 AND status = 'pending'
         RETURNING from_user_id, to_user_id`,
		requestID,
	).Scan(&fromID, &toID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)`,
		fromID, toID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetUserFriends 查询用户好友列表
func (p *PostgreSQL) GetUserFriends(userID int64) ([]models.User, error) {
	rows, err := p.db.Query(
		`SELECT u.id, u.username, u.created_at
         FROM users u
         JOIN friendships f ON f.friend_id = u.id
         WHERE f.user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, user)
	}
	return friends, rows.Err()
}

// RecordTransaction 记录货币流水
func (p *PostgreSQL) RecordTransaction(t *models.Transaction) error {
	_, err := p.db.Exec(
		`INSERT INTO transactions (player_id, counterparty_id, amount, source)
         VALUES ($1, $2, $3, $4)`,
		t.PlayerID, t.CounterpartyID, t.Amount, t.Source,
	)
	return err
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
