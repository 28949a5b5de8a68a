package coordinator

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kittycore/internal/domain"
)

// Server exposes the coordinator's HTTP API and websocket transport.
type Server struct {
	store    *Store
	hub      *Hub
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// NewServer wires a server around the given store.
func NewServer(store *Store, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		store: store,
		hub:   NewHub(),
		log:   log,
		upgrader: websocket.Upgrader{
			// The CLI client is not a browser; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/users", s.handleRegister)
	r.POST("/api/login", s.handleLogin)

	auth := r.Group("/api", s.requireAuth)
	auth.PUT("/users/me/key", s.handleSetKey)
	auth.GET("/users/:id/key", s.handleGetKey)
	auth.POST("/rooms", s.handleRoom)
	auth.GET("/rooms/:roomId/messages", s.handleMessages)

	r.GET("/ws", s.handleWS)
	return r
}

// ---------- REST ----------

type credentialsReq struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	id, err := s.store.CreateUser(req.Name, req.Password)
	if err != nil {
		s.fail(c, errors.Wrap(err, "register"))
		return
	}
	s.log.WithFields(logrus.Fields{"user": id, "name": req.Name}).Info("registered user")
	c.JSON(http.StatusOK, gin.H{"userId": id})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	token, id, err := s.store.Authenticate(req.Name, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "userId": id})
}

// requireAuth resolves the bearer token to a user id once; everything
// downstream sees only the resolved identity.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	user, err := s.store.ResolveToken(domain.SessionToken(token))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid session"})
		return
	}
	c.Set("user", user)
}

func currentUser(c *gin.Context) domain.UserID {
	return c.MustGet("user").(domain.UserID)
}

type setKeyReq struct {
	PublicKey domain.X25519Public `json:"publicKey"`
}

func (s *Server) handleSetKey(c *gin.Context) {
	var req setKeyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := s.store.SetPublicKey(currentUser(c), req.PublicKey); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGetKey(c *gin.Context) {
	pub, err := s.store.PublicKey(domain.UserID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": pub})
}

type roomReq struct {
	PeerID domain.UserID `json:"peerId" binding:"required"`
}

func (s *Server) handleRoom(c *gin.Context) {
	var req roomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user := currentUser(c)
	room, err := s.store.GetOrCreateRoom(user, req.PeerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	peerKey, err := s.store.PublicKey(req.PeerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room.ID, "peerPublicKey": peerKey})
}

func (s *Server) handleMessages(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	user := currentUser(c)

	ok, err := s.store.IsMember(roomID, user)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "room not found"})
		return
	}

	envs, err := s.store.ListPending(roomID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if envs == nil {
		envs = []domain.Envelope{}
	}
	c.JSON(http.StatusOK, envs)
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingPublicKey):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrInvalidEnvelope):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		s.log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	}
}

// ---------- websocket ----------

// handleWS upgrades the connection and runs its event loop. Handlers
// for join, send, and ack are short units of work; nothing here blocks
// the loop for unbounded time.
func (s *Server) handleWS(c *gin.Context) {
	user, err := s.store.ResolveToken(domain.SessionToken(c.Query("token")))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid session"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	sess := &wsSession{server: s, conn: conn, user: user, joined: map[domain.RoomID]*member{}}
	defer sess.cleanup()
	sess.readLoop()
}

type wsSession struct {
	server *Server
	conn   *websocket.Conn
	user   domain.UserID

	writeMu sync.Mutex
	joined  map[domain.RoomID]*member
}

func (w *wsSession) readLoop() {
	log := w.server.log.WithField("user", w.user)
	for {
		var f domain.Frame
		if err := w.conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Event {
		case domain.EventJoin:
			w.handleJoin(f)
		case domain.EventSend:
			w.handleSend(f)
		case domain.EventAck:
			w.handleAck(f)
		default:
			log.WithField("event", f.Event).Debug("ignoring unknown frame")
		}
	}
}

func (w *wsSession) handleJoin(f domain.Frame) {
	ok, err := w.server.store.IsMember(f.RoomID, w.user)
	if err != nil || !ok {
		return
	}
	if _, already := w.joined[f.RoomID]; already {
		return
	}
	m := w.server.hub.Join(f.RoomID, w.user)
	w.joined[f.RoomID] = m
	go w.pump(m)
	w.server.log.WithFields(logrus.Fields{"user": w.user, "room": f.RoomID}).Debug("joined room")
}

func (w *wsSession) handleSend(f domain.Frame) {
	if f.Envelope == nil {
		return
	}
	env := *f.Envelope
	env.Sender = w.user
	ok, err := w.server.store.IsMember(f.RoomID, w.user)
	if err != nil || !ok {
		return
	}
	persisted, err := w.server.store.AppendEnvelope(f.RoomID, env)
	if err != nil {
		w.server.log.WithError(err).WithField("room", f.RoomID).Warn("append rejected")
		return
	}
	w.server.hub.Broadcast(f.RoomID, w.user, domain.Frame{
		Event:    domain.EventPush,
		RoomID:   f.RoomID,
		Envelope: &persisted,
	})
}

func (w *wsSession) handleAck(f domain.Frame) {
	flipped, err := w.server.store.Acknowledge(f.RoomID, f.MessageID)
	if err != nil {
		w.server.log.WithError(err).Warn("acknowledge failed")
		return
	}
	if flipped {
		// Sender-side delivery indicator; best-effort only.
		w.server.hub.Broadcast(f.RoomID, w.user, domain.Frame{
			Event:     domain.EventStatus,
			RoomID:    f.RoomID,
			MessageID: f.MessageID,
			Status:    domain.StatusSent,
		})
	}
}

// pump forwards hub frames to the socket until the membership closes.
func (w *wsSession) pump(m *member) {
	for f := range m.send {
		w.writeMu.Lock()
		err := w.conn.WriteJSON(f)
		w.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (w *wsSession) cleanup() {
	for room, m := range w.joined {
		w.server.hub.Leave(room, m)
	}
	_ = w.conn.Close()
}
