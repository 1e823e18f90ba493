package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bankdesk/models"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidAccountType),
		errors.Is(err, models.ErrInvalidCurrency),
		errors.Is(err, models.ErrCurrencyMismatch),
		errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrSourceNotFound),
		errors.Is(err, models.ErrDestinationNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUsernameTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body. Internal failures are logged and
// answered with a generic message, except that a stranded transfer is
// reported as such so the caller knows to contact an operator.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		body := gin.H{"error": err.Error()}
		var ife *models.InsufficientFundsError
		if errors.As(err, &ife) {
			body["available"] = ife.Available.StringFixed(2)
			body["currency"] = ife.Currency
		}
		c.JSON(status, body)
		return
	}

	s.log.Error("request failed", "path", c.FullPath(), "error", err)
	switch {
	case errors.Is(err, models.ErrCompensationFailed):
		c.JSON(status, gin.H{"error": "transfer failed and could not be reversed; contact support"})
	case errors.Is(err, models.ErrTransferFailed):
		c.JSON(status, gin.H{"error": "transfer failed; the debit was reversed"})
	default:
		c.JSON(status, gin.H{"error": "internal error"})
	}
}
