// Package server exposes editing sessions and saved builds over HTTP.
package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"racedesk/generator"
	"racedesk/logger"
	"racedesk/store"
)

// Options wires the server.
type Options struct {
	Agent             *generator.Agent
	Builds            *store.Store
	Log               *logger.Logger
	UndoCapacity      int
	AllowedOrigins    []string
	RequestsPerMinute int
}

type Server struct {
	agent    *generator.Agent
	builds   *store.Store
	log      *logger.Logger
	undoCap  int
	origins  []string
	limiter  *rate.Limiter
	sessions *sessionStore
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func New(opts Options) (*Server, error) {
	if opts.Agent == nil {
		return nil, errors.New("generator agent required")
	}
	if opts.Builds == nil {
		return nil, errors.New("build store required")
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	return &Server{
		agent:    opts.Agent,
		builds:   opts.Builds,
		log:      opts.Log,
		undoCap:  opts.UndoCapacity,
		origins:  opts.AllowedOrigins,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		sessions: newStore(),
	}, nil
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))
	r.Use(CORS(s.origins))

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		api.POST("/sessions", s.handleSessionCreate)
		api.GET("/sessions/:id", s.withSession(s.handleSessionGet))
		api.DELETE("/sessions/:id", s.handleSessionDelete)

		submit := RateLimit(s.limiter)
		api.POST("/sessions/:id/generate", submit, s.withSession(s.handleGenerate))
		api.POST("/sessions/:id/instructions", submit, s.withSession(s.handleInstruct))

		api.POST("/sessions/:id/undo", s.withSession(s.handleUndo))
		api.POST("/sessions/:id/reset", s.withSession(s.handleReset))
		api.PUT("/sessions/:id/target", s.withSession(s.handleTarget))
		api.PUT("/sessions/:id/layout", s.withSession(s.handleLayout))
		api.PUT("/sessions/:id/media", s.withSession(s.handleMedia))
		api.PUT("/sessions/:id/fields/:field", s.withSession(s.handleField))
		api.GET("/sessions/:id/export", s.withSession(s.handleExport))

		api.POST("/sessions/:id/builds", s.withSession(s.handleBuildSave))
		api.POST("/sessions/:id/builds/:buildID/load", s.withSession(s.handleBuildLoad))

		api.GET("/builds", s.handleBuildList)
		api.GET("/builds/:buildID", s.handleBuildGet)
		api.POST("/builds/:buildID/duplicate", s.handleBuildDuplicate)
	}
	return r
}
