package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskearn/ledger/internal/domain"
	mW "github.com/taskearn/ledger/internal/middleware"
	"github.com/taskearn/ledger/internal/models"
	"github.com/taskearn/ledger/internal/services"
)

func TestMain(m *testing.M) {
	viper.Set("jwt.secret_key", "handler-test-secret")
	os.Exit(m.Run())
}

func newTestRouter(backend *mockBackend) http.Handler {
	h := Handlers{
		Auth:      NewAuthHandler(backend, nil),
		Tasks:     NewTaskHandler(backend, nil),
		Positions: NewPositionHandler(backend, backend, backend, nil),
		Wallet:    NewWalletHandler(backend, backend, backend, backend, nil),
		Referrals: NewReferralHandler(backend, nil),
		Admin:     NewAdminHandler(backend, backend, backend, backend, nil),
	}
	r := chi.NewRouter()
	r.Route("/api/v1", h.Mount)
	return r
}

func tokenFor(t *testing.T, userID int64, role string) string {
	token, err := mW.IssueToken(mW.Claims{UserID: userID, Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, router http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) services.ErrorResponse {
	var resp services.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCompleteTask(t *testing.T) {
	evidence := models.WatchEvidence{WatchedSeconds: 60, VideoDurationSeconds: 60}
	body := `{"videoId":3,"watchedSeconds":60,"videoDurationSeconds":60}`

	tests := []struct {
		name       string
		result     *models.DistributionResult
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "paid",
			result:     &models.DistributionResult{TaskID: 7, VideoID: 3, ReferenceID: "TASK-7", Reward: 26},
			wantStatus: http.StatusOK,
		},
		{
			name:       "already completed",
			err:        domain.NewAlreadyCompletedError(7, 3),
			wantStatus: http.StatusConflict,
			wantCode:   domain.ErrCodeAlreadyCompleted,
		},
		{
			name:       "quota reached",
			err:        domain.NewQuotaExceededError(5),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   domain.ErrCodeQuotaExceeded,
		},
		{
			name:       "no position",
			err:        domain.NewInsufficientPositionError("no active position"),
			wantStatus: http.StatusForbidden,
			wantCode:   domain.ErrCodeInsufficientPosition,
		},
		{
			name:       "rate table gap",
			err:        domain.NewConfigurationError("no task_income rate for p3"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   domain.ErrCodeConfiguration,
		},
		{
			name:       "database down",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{}
			backend.On("DistributeTaskIncome", mock.Anything, int64(7), int64(3), evidence).Return(tt.result, tt.err)

			w := do(t, newTestRouter(backend), http.MethodPost, "/api/v1/tasks/complete", body, tokenFor(t, 7, ""))
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.err == nil {
				var got models.DistributionResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, int64(26), got.Reward)
				return
			}
			resp := errorBody(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode == "" {
				assert.Equal(t, "Internal server error", resp.Error)
			}
		})
	}
}

func TestCompleteTask_BadRequests(t *testing.T) {
	backend := &mockBackend{}
	router := newTestRouter(backend)
	auth := tokenFor(t, 7, "")

	w := do(t, router, http.MethodPost, "/api/v1/tasks/complete", `{"videoId":3}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/tasks/complete", `{"videoId":3,"reward":1000}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/tasks/complete", `{"videoId":0,"watchedSeconds":5,"videoDurationSeconds":60}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w).Details, "VideoID")

	w = do(t, router, http.MethodPost, "/api/v1/tasks/complete", `{"videoId":3,"videoDurationSeconds":60}{}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.AssertNotCalled(t, "DistributeTaskIncome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpgrade(t *testing.T) {
	body := `{"targetPositionId":2,"depositAmount":3900}`

	t.Run("paid", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("UpgradePosition", mock.Anything, int64(7), int64(2), int64(3900)).
			Return(&models.UpgradeResult{CommissionStatus: models.CommissionNoAncestors, WalletBalance: 100}, nil)

		w := do(t, newTestRouter(backend), http.MethodPost, "/api/v1/positions/upgrade", body, tokenFor(t, 7, ""))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rewards queued", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("UpgradePosition", mock.Anything, int64(7), int64(2), int64(3900)).
			Return(&models.UpgradeResult{CommissionStatus: models.CommissionQueued}, nil)

		w := do(t, newTestRouter(backend), http.MethodPost, "/api/v1/positions/upgrade", body, tokenFor(t, 7, ""))
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("insufficient wallet", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("UpgradePosition", mock.Anything, int64(7), int64(2), int64(3900)).
			Return(nil, domain.NewInsufficientFundsError(7, "WALLET", 1000, 3900))

		w := do(t, newTestRouter(backend), http.MethodPost, "/api/v1/positions/upgrade", body, tokenFor(t, 7, ""))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, domain.ErrCodeInsufficientFunds, errorBody(t, w).Code)
	})
}

func TestPositionStatusAndList(t *testing.T) {
	backend := &mockBackend{}
	backend.On("PositionStatus", mock.Anything, int64(7)).
		Return(&models.PositionStatus{TasksCompletedToday: 2, TasksRemaining: 3, CanComplete: true}, nil)
	backend.On("List", mock.Anything).
		Return([]models.Position{{ID: 1, Name: "Intern"}, {ID: 2, Name: "P1"}}, nil)
	router := newTestRouter(backend)

	w := do(t, router, http.MethodGet, "/api/v1/positions/status", "", tokenFor(t, 7, ""))
	require.Equal(t, http.StatusOK, w.Code)
	var status models.PositionStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 3, status.TasksRemaining)

	// The catalog is public.
	w = do(t, router, http.MethodGet, "/api/v1/positions", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var positions []models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &positions))
	assert.Len(t, positions, 2)
}

func TestWalletEndpoints(t *testing.T) {
	backend := &mockBackend{}
	router := newTestRouter(backend)
	auth := tokenFor(t, 7, "")

	backend.On("Balances", mock.Anything, int64(7)).
		Return(&models.Balances{Wallet: 100, Commission: 29, TotalEarnings: 29}, nil)
	w := do(t, router, http.MethodGet, "/api/v1/wallet", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"walletBalance":100,"commissionBalance":29,"totalEarnings":29}`, w.Body.String())

	backend.On("ListTransactions", mock.Anything, int64(7), 20).Return([]models.WalletTransaction{}, nil)
	w = do(t, router, http.MethodGet, "/api/v1/wallet/transactions?limit=20", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/wallet/transactions?limit=abc", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.On("RequestTopup", mock.Anything, int64(7), int64(3900)).
		Return(&models.TopupRequest{ID: 12, UserID: 7, Amount: 3900, Status: models.RequestPending}, nil)
	w = do(t, router, http.MethodPost, "/api/v1/wallet/topups", `{"amount":3900}`, auth)
	assert.Equal(t, http.StatusCreated, w.Code)

	backend.On("RequestWithdrawal", mock.Anything, int64(7), int64(300), "secret1").
		Return(nil, domain.NewWithdrawalNotAllowedError("interns cannot withdraw"))
	w = do(t, router, http.MethodPost, "/api/v1/wallet/withdraw", `{"amount":300,"fundPassword":"secret1"}`, auth)
	assert.Equal(t, http.StatusForbidden, w.Code)

	backend.On("SetFundPassword", mock.Anything, int64(7), "secret1").Return(nil)
	w = do(t, router, http.MethodPost, "/api/v1/wallet/fund-password", `{"password":"secret1"}`, auth)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/wallet/fund-password", `{"password":"123"}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.On("RequestRefund", mock.Anything, int64(7), int64(3900), "leaving").
		Return(&models.SecurityRefundRequest{ID: 4}, nil)
	w = do(t, router, http.MethodPost, "/api/v1/wallet/refunds", `{"amount":3900,"reason":"leaving"}`, auth)
	assert.Equal(t, http.StatusCreated, w.Code)

	backend.AssertExpectations(t)
}

func TestReferralEndpoints(t *testing.T) {
	backend := &mockBackend{}
	backend.On("InviteQRCode", mock.Anything, int64(7)).
		Return([]byte{0x89, 'P', 'N', 'G'}, "https://taskearn.example/register?ref=AB12CD", nil)
	backend.On("Downline", mock.Anything, int64(7)).
		Return([]models.ReferralEdge{{UserID: 50, ReferrerID: 7, Level: models.LevelA}}, nil)
	router := newTestRouter(backend)
	auth := tokenFor(t, 7, "")

	w := do(t, router, http.MethodGet, "/api/v1/referrals/invite-qr", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	var invite struct {
		Link    string `json:"link"`
		QRImage string `json:"qrImage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invite))
	assert.Equal(t, "https://taskearn.example/register?ref=AB12CD", invite.Link)
	image, err := base64.StdEncoding.DecodeString(invite.QRImage)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, image)

	w = do(t, router, http.MethodGet, "/api/v1/referrals/downline", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	backend := &mockBackend{}
	router := newTestRouter(backend)
	admin := tokenFor(t, 1, mW.RoleAdmin)

	w := do(t, router, http.MethodPost, "/api/v1/admin/topups/12/approve", "", tokenFor(t, 7, ""))
	assert.Equal(t, http.StatusForbidden, w.Code)

	backend.On("ApproveTopup", mock.Anything, int64(12)).Return(&models.BatchResult{ReferenceID: "TOPUP-12"}, nil)
	w = do(t, router, http.MethodPost, "/api/v1/admin/topups/12/approve", "", admin)
	assert.Equal(t, http.StatusOK, w.Code)

	backend.On("ApproveTopup", mock.Anything, int64(13)).Return(nil, domain.NewConflictError("topup 13 is APPROVED"))
	w = do(t, router, http.MethodPost, "/api/v1/admin/topups/13/approve", "", admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/admin/topups/abc/approve", "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/admin/topups/12/reject", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.On("RejectTopup", mock.Anything, int64(12), "no receipt").Return(nil)
	w = do(t, router, http.MethodPost, "/api/v1/admin/topups/12/reject", `{"reason":"no receipt"}`, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	backend.On("ApproveWithdrawal", mock.Anything, int64(31)).Return(nil)
	w = do(t, router, http.MethodPost, "/api/v1/admin/withdrawals/31/approve", "", admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	backend.On("RejectWithdrawal", mock.Anything, int64(31), "bank details invalid").
		Return(&models.BatchResult{ReferenceID: "WITHDRAWAL-abc-REVERSAL"}, nil)
	w = do(t, router, http.MethodPost, "/api/v1/admin/withdrawals/31/reject", `{"reason":"bank details invalid"}`, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	backend.On("ApproveRefund", mock.Anything, int64(4)).Return(nil)
	w = do(t, router, http.MethodPost, "/api/v1/admin/refunds/4/approve", "", admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	backend.On("RejectRefund", mock.Anything, int64(5), "duplicate").Return(nil)
	w = do(t, router, http.MethodPost, "/api/v1/admin/refunds/5/reject", `{"reason":"duplicate"}`, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	backend.AssertExpectations(t)
}

func TestVerifyLedger(t *testing.T) {
	backend := &mockBackend{}
	backend.On("VerifyAccount", mock.Anything, int64(7), models.AccountWallet).
		Return(&models.AccountDrift{UserID: 7, Account: models.AccountWallet, Consistent: true}, nil)
	backend.On("VerifyAccount", mock.Anything, int64(7), models.AccountCommission).
		Return(&models.AccountDrift{UserID: 7, Account: models.AccountCommission, StoredBalance: 30, ReplayedBalance: 29}, nil)

	w := do(t, newTestRouter(backend), http.MethodGet, "/api/v1/admin/ledger/7/verify", "", tokenFor(t, 1, mW.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)

	var drifts []models.AccountDrift
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drifts))
	require.Len(t, drifts, 2)
	assert.True(t, drifts[0].Consistent)
	assert.False(t, drifts[1].Consistent)
}

func TestAuthEndpoints(t *testing.T) {
	backend := &mockBackend{}
	router := newTestRouter(backend)

	backend.On("Register", mock.Anything, services.RegisterRequest{Username: "amina01", Password: "password123", ReferralCode: "K3T9QW2M"}).
		Return(&services.AuthResponse{Token: "t", UserID: 100, ReferralCode: "ABCDEFGH"}, nil)
	w := do(t, router, http.MethodPost, "/api/v1/auth/register", `{"username":"amina01","password":"password123","referralCode":"K3T9QW2M"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/auth/register", `{"username":"a","password":"password123"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.On("Login", mock.Anything, services.LoginRequest{Username: "amina01", Password: "wrong"}).
		Return(nil, domain.NewUnauthorizedError("invalid credentials"))
	w = do(t, router, http.MethodPost, "/api/v1/auth/login", `{"username":"amina01","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.ErrCodeUnauthorized, errorBody(t, w).Code)

	auth := tokenFor(t, 7, "")
	backend.On("Logout", mock.Anything, strings.TrimPrefix(auth, "Bearer ")).Return(nil)
	w = do(t, router, http.MethodPost, "/api/v1/auth/logout", "", auth)
	assert.Equal(t, http.StatusNoContent, w.Code)

	backend.AssertExpectations(t)
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		domain.ErrCodeAlreadyCompleted:     http.StatusConflict,
		domain.ErrCodeBatchAlreadyApplied:  http.StatusConflict,
		domain.ErrCodeQuotaExceeded:        http.StatusTooManyRequests,
		domain.ErrCodeWithdrawalNotAllowed: http.StatusForbidden,
		domain.ErrCodeInvalidUpgrade:       http.StatusUnprocessableEntity,
		domain.ErrCodeNotFound:             http.StatusNotFound,
		domain.ErrCodeUnauthorized:         http.StatusUnauthorized,
		domain.ErrCodePartialDistribution:  http.StatusAccepted,
		domain.ErrCodeConfiguration:        http.StatusInternalServerError,
		"":                                 http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(code), code)
	}
}
