// services/social_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/models"
	"github.com/wfunc/arena/persistence"
	"github.com/wfunc/arena/session"
)

// Friend is a friend-list entry enriched with live presence.
type Friend struct {
	User   models.User `json:"user"`
	Online bool        `json:"online"`
}

// SocialService layers the friend workflow over the persistence
// collaborator. It lives outside the room hot path; any failure here is
// logged and degrades the social feature only.
type SocialService struct {
	db       persistence.Database
	registry *session.Registry
}

func NewSocialService(db persistence.Database, registry *session.Registry) *SocialService {
	return &SocialService{
		db:       db,
		registry: registry,
	}
}

// GetOrCreateUser resolves a username to a persistent user, creating the
// record on first sight.
func (s *SocialService) GetOrCreateUser(username string) (*models.User, error) {
	user, err := s.db.GetUserByUsername(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}

	user, err = s.db.CreateUser(username)
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	logger.Log.Infof("Created user %s (id %d)", username, user.ID)
	return user, nil
}

// FriendRequests returns the user's pending friend requests.
func (s *SocialService) FriendRequests(userID int64) ([]models.FriendRequest, error) {
	requests, err := s.db.GetFriendRequests(userID)
	if err != nil {
		return nil, fmt.Errorf("friend requests for user %d: %w", userID, err)
	}
	return requests, nil
}

// AcceptFriendRequest accepts a pending request.
func (s *SocialService) AcceptFriendRequest(requestID int64) error {
	if err := s.db.AcceptFriendRequest(requestID); err != nil {
		return fmt.Errorf("accept friend request %d: %w", requestID, err)
	}
	return nil
}

// FriendList returns the user's friends annotated with presence from the
// connection registry.
func (s *SocialService) FriendList(userID int64) ([]Friend, error) {
	users, err := s.db.GetUserFriends(userID)
	if err != nil {
		return nil, fmt.Errorf("friends of user %d: %w", userID, err)
	}

	friends := make([]Friend, 0, len(users))
	for _, user := range users {
		friends = append(friends, Friend{
			User:   user,
			Online: s.registry.IsOnline(user.Username),
		})
	}
	return friends, nil
}
