package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/services/referral"
)

// ReferralHandler serves the referrer dashboard
type ReferralHandler struct {
	poster *referral.Poster
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(poster *referral.Poster) *ReferralHandler {
	return &ReferralHandler{poster: poster}
}

// MyReferrals returns the user's referral code, balance, referees and
// commission ledger
func (h *ReferralHandler) MyReferrals(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	referees, err := h.poster.GetReferees(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load referees"})
		return
	}

	transactions, err := h.poster.GetTransactions(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"referral_code":   user.ReferralCode,
		"balance":         user.ReferralBalance,
		"commission_rate": h.poster.Rate(),
		"referees":        referees,
		"transactions":    transactions,
	})
}
