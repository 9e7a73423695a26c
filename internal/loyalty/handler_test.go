package loyalty

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRedemptionHonorsCartTotal(t *testing.T) {
	checker := NewChecker(nil, 5000, nil)
	h := NewHandler(checker, NewReferralValidator(&stubRepo{}, nil), &stubRepo{}, nil)

	// Items alone would clear the minimum; the client-priced total is the
	// word that counts.
	body := `{"rewardId":"r1","cartTotal":4000,"selectedServices":[{"name":"Interior Detail","amountCents":9000}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/loyalty/validate-redemption", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ValidateRedemption(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool             `json:"success"`
		Data    ValidationStatus `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Data.CanRedeem)
	assert.Contains(t, resp.Data.Reason, "minimum")
}

func TestValidateRedemptionMissingReward(t *testing.T) {
	h := NewHandler(NewChecker(nil, 5000, nil), NewReferralValidator(&stubRepo{}, nil), &stubRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/loyalty/validate-redemption", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ValidateRedemption(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
