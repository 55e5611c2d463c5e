// server/server.go
package server

import (
	"errors"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/arena/broadcast"
	"github.com/wfunc/arena/config"
	"github.com/wfunc/arena/game"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/monitor"
	"github.com/wfunc/arena/network"
	"github.com/wfunc/arena/persistence"
	arena_rpc "github.com/wfunc/arena/rpc"
	"github.com/wfunc/arena/services"
	"github.com/wfunc/arena/session"
	"github.com/wfunc/arena/state"
	"github.com/wfunc/arena/timer"
)

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	store          *game.Store
	sessionManager *session.Manager
	registry       *session.Registry
	handler        *game.Handler
	reaper         *game.Reaper
	leaderboard    *game.Leaderboard
	socialService  *services.SocialService
	paymentService *services.PaymentService
	timers         *timer.Manager
	monitor        *monitor.Monitor
	rpcServer      *arena_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	store := game.NewStore(cfg.Game.RoomCapacity)
	sessions := session.NewManager()
	registry := session.NewRegistry()
	broadcaster := broadcast.NewRoomBroadcaster(store, sessions)

	settings := game.Settings{
		RoomCapacity:  cfg.Game.RoomCapacity,
		ArenaSize:     cfg.Game.ArenaSize,
		StartingMoney: cfg.Game.StartingMoney,
		InitialLength: cfg.Game.InitialLength,
	}

	handler := game.NewHandler(store, broadcaster, sessions, registry, settings)
	if db != nil {
		handler.SetLedger(services.NewLedger(db))
	}

	s := &GameServer{
		cfg:            cfg,
		store:          store,
		sessionManager: sessions,
		registry:       registry,
		handler:        handler,
		reaper:         game.NewReaper(store, broadcaster, cfg.Game.StaleTimeout),
		leaderboard:    game.NewLeaderboard(store, broadcaster),
		timers:         timer.NewManager(),
		monitor:        monitor.NewMonitor("arena"),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	if db != nil {
		s.socialService = services.NewSocialService(db, registry)
		if cfg.Payment.VerifierURL != "" {
			verifier := services.NewHTTPVerifier(cfg.Payment.VerifierURL)
			s.paymentService = services.NewPaymentService(verifier, store, db)
		}
	}

	// Reaped sessions get no transport-level disconnect; terminate their
	// lifecycle so any late events from them are dropped.
	s.reaper.OnReaped = func(sessionID string) {
		if sess, exists := s.sessionManager.Get(sessionID); exists {
			sess.Machine.Transition(state.Terminated)
		}
	}

	// 初始化RPC服务器
	rpcServer, err := arena_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	rpc.Register(arena_rpc.NewStatsService(store, sessions))
	if s.socialService != nil {
		rpc.Register(arena_rpc.NewSocialService(s.socialService))
	}
	if s.paymentService != nil {
		rpc.Register(arena_rpc.NewPaymentService(s.paymentService))
	}

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	s.timers.AddTimer(s.cfg.Game.ReapInterval, s.cfg.Game.ReapInterval, func() {
		reaped := s.reaper.Sweep(time.Now())
		if reaped > 0 {
			s.monitor.AddReapedSessions(reaped)
		}
		s.monitor.SetActiveRooms(s.store.RoomCount())
	})
	s.timers.AddTimer(s.cfg.Game.LeaderboardInterval, s.cfg.Game.LeaderboardInterval, func() {
		s.leaderboard.Tick()
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handler.HandleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			env, err := wsConn.ReadEvent()
			if err != nil {
				return
			}
			if disconnect := s.handleEvent(sess, env); disconnect {
				return
			}
		}
	}
}

// handleEvent dispatches one inbound event. Returns true when the
// connection must be dropped (the room-full rejection).
func (s *GameServer) handleEvent(sess *session.Session, env *network.Envelope) bool {
	started := time.Now()
	s.monitor.IncEventsReceived()
	defer func() {
		s.monitor.ObserveEventLatency(time.Since(started))
	}()

	switch env.Event {
	case network.EventJoinGame:
		if err := s.handler.HandleJoin(sess, env.Data); err != nil {
			if errors.Is(err, game.ErrRoomFull) {
				return true
			}
			logger.Log.Errorf("Join failed for session %s: %v", sess.GetID(), err)
		} else {
			s.monitor.SetActiveRooms(s.store.RoomCount())
			s.registerUser(sess)
		}
	case network.EventPlayerUpdate:
		s.handler.HandlePositionUpdate(sess, env.Data)
	case network.EventPlayerStateUpdate:
		s.handler.HandleStateUpdate(sess, env.Data)
	case network.EventPlayerKilled:
		s.handler.HandleKill(sess, env.Data)
	case network.EventPlayerRespawn:
		s.handler.HandleRespawn(sess)
	default:
		logger.Log.Infof("Unknown event %q from session %s", env.Event, sess.GetID())
	}
	return false
}

// registerUser resolves the joined username against persistence. A
// failure degrades the social features for this session and nothing else.
func (s *GameServer) registerUser(sess *session.Session) {
	if s.socialService == nil {
		return
	}
	username := sess.GetUsername()
	if username == "" {
		return
	}
	go func() {
		if _, err := s.socialService.GetOrCreateUser(username); err != nil {
			logger.Log.Warnf("User registration degraded for %s: %v", username, err)
		}
	}()
}
