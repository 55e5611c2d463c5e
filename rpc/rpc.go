// rpc/rpc.go
package rpc

import (
	"context"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/arena/game"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/models"
	"github.com/wfunc/arena/services"
	"github.com/wfunc/arena/session"
)

// Server manages the RPC listener for the ops/admin surface.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsService exposes live room statistics over net/rpc.
type StatsService struct {
	store    *game.Store
	sessions *session.Manager
}

func NewStatsService(store *game.Store, sessions *session.Manager) *StatsService {
	return &StatsService{
		store:    store,
		sessions: sessions,
	}
}

type OverviewArgs struct{}

type OverviewReply struct {
	Rooms    int
	Sessions int
	RoomKeys []string
}

// GetOverview reports the live room and session counts.
func (s *StatsService) GetOverview(args *OverviewArgs, reply *OverviewReply) error {
	reply.Rooms = s.store.RoomCount()
	reply.Sessions = s.sessions.Count()
	reply.RoomKeys = s.store.Keys()
	return nil
}

type RoomArgs struct {
	RoomKey string
}

type RoomReply struct {
	Players []game.PlayerState
}

// GetRoom reports the players currently in one room.
func (s *StatsService) GetRoom(args *RoomArgs, reply *RoomReply) error {
	reply.Players = s.store.Players(args.RoomKey)
	return nil
}

// SocialService exposes the friend workflow over net/rpc. Methods follow
// the net/rpc signature: exported args struct, pointer reply, error return.
type SocialService struct {
	social *services.SocialService
}

func NewSocialService(social *services.SocialService) *SocialService {
	return &SocialService{social: social}
}

type FriendRequestsArgs struct {
	UserID int64
}

type FriendRequestsReply struct {
	Requests []models.FriendRequest
}

func (s *SocialService) GetFriendRequests(args *FriendRequestsArgs, reply *FriendRequestsReply) error {
	requests, err := s.social.FriendRequests(args.UserID)
	if err != nil {
		return err
	}
	reply.Requests = requests
	return nil
}

type AcceptFriendArgs struct {
	RequestID int64
}

type AcceptFriendReply struct{}

func (s *SocialService) AcceptFriendRequest(args *AcceptFriendArgs, reply *AcceptFriendReply) error {
	return s.social.AcceptFriendRequest(args.RequestID)
}

type FriendListArgs struct {
	UserID int64
}

type FriendListReply struct {
	Friends []services.Friend
}

func (s *SocialService) GetFriendList(args *FriendListArgs, reply *FriendListReply) error {
	friends, err := s.social.FriendList(args.UserID)
	if err != nil {
		return err
	}
	reply.Friends = friends
	return nil
}

// PaymentService exposes top-up crediting over net/rpc.
type PaymentService struct {
	payments *services.PaymentService
}

func NewPaymentService(payments *services.PaymentService) *PaymentService {
	return &PaymentService{payments: payments}
}

type TopUpArgs struct {
	RoomKey   string
	PlayerID  string
	Amount    float64
	Addresses []string
}

type TopUpReply struct{}

func (s *PaymentService) CreditTopUp(args *TopUpArgs, reply *TopUpReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return s.payments.CreditTopUp(ctx, args.RoomKey, args.PlayerID, args.Amount, args.Addresses)
}
