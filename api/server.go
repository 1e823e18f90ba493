// Package api exposes the identity and ledger services over HTTP using gin.
// Every route except registration requires HTTP Basic credentials; the
// authenticated user becomes the request's models.Session.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bankdesk/events"
	"bankdesk/identity"
	"bankdesk/ledger"
	"bankdesk/models"
)

const sessionKey = "session"

// History reads the mirrored entry journal.
type History interface {
	History(ctx context.Context, account string, limit int) ([]events.Entry, error)
}

// Server holds the services the handlers call into.
type Server struct {
	identity *identity.Service
	ledger   *ledger.Service
	journal  History
	log      *slog.Logger
}

// NewServer wires the handlers. journal may be nil, in which case the
// journal route answers 404.
func NewServer(id *identity.Service, l *ledger.Service, journal History, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{identity: id, ledger: l, journal: journal, log: log}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.POST("/register", s.register)

	auth := r.Group("/", s.authenticate())
	auth.GET("/profile", s.profile)
	auth.GET("/accounts", s.listAccounts)
	auth.POST("/accounts", s.createAccount)
	auth.GET("/accounts/:number", s.showAccount)
	auth.GET("/accounts/:number/owner", s.accountOwner)
	auth.GET("/accounts/:number/transactions", s.transactions)
	auth.GET("/accounts/:number/journal", s.journalHistory)
	auth.POST("/accounts/:number/deposit", s.deposit)
	auth.POST("/accounts/:number/withdraw", s.withdraw)
	auth.POST("/transfer", s.transfer)

	return r
}

// authenticate resolves Basic credentials into a session. Unknown users and
// wrong passwords get the same 401.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="bankdesk"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		user, err := s.identity.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		if user == nil {
			c.Header("WWW-Authenticate", `Basic realm="bankdesk"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		c.Set(sessionKey, models.Session{User: *user})
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status())
	}
}

func session(c *gin.Context) models.Session {
	return c.MustGet(sessionKey).(models.Session)
}
