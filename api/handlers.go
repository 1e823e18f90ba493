package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bankdesk/models"
)

type registerRequest struct {
	models.Profile
	Password string `json:"password"`
}

type createAccountRequest struct {
	Type           models.AccountType `json:"account_type"`
	Currency       string             `json:"currency"`
	OverdraftLimit decimal.Decimal    `json:"overdraft_limit"`
}

type movementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// register creates a customer and returns the new id.
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.identity.Register(c.Request.Context(), req.Profile, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "username": req.Username})
}

func (s *Server) profile(c *gin.Context) {
	p, err := s.identity.GetProfile(c.Request.Context(), session(c).User.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrUserNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.ledger.GetAccounts(c.Request.Context(), session(c).User.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	number, err := s.ledger.CreateAccount(ctx, session(c).User.ID, req.Type, req.Currency, req.OverdraftLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	acc, err := s.ledger.GetAccount(ctx, number)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (s *Server) showAccount(c *gin.Context) {
	acc, ok := s.ownedAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, acc)
}

// accountOwner is open to any authenticated user so a sender can confirm
// who they are paying.
func (s *Server) accountOwner(c *gin.Context) {
	owner, err := s.ledger.GetAccountOwner(c.Request.Context(), c.Param("number"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if owner == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrAccountNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, owner)
}

func (s *Server) transactions(c *gin.Context) {
	acc, ok := s.ownedAccount(c)
	if !ok {
		return
	}
	txs, err := s.ledger.GetTransactions(c.Request.Context(), acc.Number, queryLimit(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (s *Server) journalHistory(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal is not configured"})
		return
	}
	acc, ok := s.ownedAccount(c)
	if !ok {
		return
	}
	entries, err := s.journal.History(c.Request.Context(), acc.Number, queryLimit(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) deposit(c *gin.Context) {
	s.movement(c, s.ledger.Deposit)
}

func (s *Server) withdraw(c *gin.Context) {
	s.movement(c, s.ledger.Withdraw)
}

func (s *Server) movement(c *gin.Context, apply func(ctx context.Context, number string, amount decimal.Decimal, description string) error) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acc, ok := s.ownedAccount(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := apply(ctx, acc.Number, req.Amount, req.Description); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.ledger.GetAccount(ctx, acc.Number)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	src, err := s.ledger.GetAccount(ctx, req.From)
	if err != nil {
		s.fail(c, err)
		return
	}
	if src != nil && !session(c).Owns(src) {
		c.JSON(http.StatusForbidden, gin.H{"error": "account belongs to another customer"})
		return
	}

	if err := s.ledger.Transfer(ctx, req.From, req.To, req.Amount, req.Description); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Transfer completed",
		"from":     req.From,
		"to":       req.To,
		"amount":   req.Amount,
		"currency": src.Currency,
	})
}

// ownedAccount loads the :number account and checks that the session owns
// it, writing the error response itself when it returns false.
func (s *Server) ownedAccount(c *gin.Context) (*models.Account, bool) {
	acc, err := s.ledger.GetAccount(c.Request.Context(), c.Param("number"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	if acc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrAccountNotFound.Error()})
		return nil, false
	}
	if !session(c).Owns(acc) {
		c.JSON(http.StatusForbidden, gin.H{"error": "account belongs to another customer"})
		return nil, false
	}
	return acc, true
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		return 0
	}
	return limit
}
