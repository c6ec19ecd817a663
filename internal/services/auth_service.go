package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/spf13/viper"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

const (
	referralCodeLength   = 8
	referralCodeAttempts = 3
	revokedTokenPrefix   = "revoked:"
)

var referralCodeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// AuthService registers users under their referrer and issues access tokens.
type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	hierarchy AncestorResolver
	logger    *zap.Logger
	now       func() time.Time
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=32,alphanum" example:"amina01"`
	Password     string `json:"password" validate:"required,min=6,max=64" example:"password123"`
	ReferralCode string `json:"referralCode,omitempty" validate:"omitempty,len=8,alphanum" example:"K3T9QW2M"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"amina01"`
	Password string `json:"password" validate:"required" example:"password123"`
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token        string `json:"token"`
	UserID       int64  `json:"userId"`
	ReferralCode string `json:"referralCode,omitempty"`
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, hierarchy AncestorResolver, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		hierarchy: hierarchy,
		logger:    logging.OrNop(logger).Named("auth"),
		now:       time.Now,
	}
}

// Register creates an intern account. A referral code links the new user to its referrer,
// and the A/B/C edges are snapshotted right away so later changes upstream do not move them.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var referrerID *int64
	if req.ReferralCode != "" {
		id, err := s.referrerByCode(ctx, req.ReferralCode)
		if err != nil {
			return nil, err
		}
		referrerID = &id
	}

	internID, err := s.internPosition(ctx)
	if err != nil {
		return nil, err
	}

	var (
		userID int64
		code   string
	)
	now := s.now().UTC()
	for attempt := 1; ; attempt++ {
		code, err = newReferralCode()
		if err != nil {
			return nil, err
		}
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO users (username, password, referral_code, referrer_id, current_position_id, position_start_date, is_intern, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $6, $6)
			RETURNING id`,
			strings.ToLower(req.Username), hashed, code, referrerID, internID, now).Scan(&userID)
		if err == nil {
			break
		}
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if pqErr.Constraint != "users_referral_code_key" {
			return nil, domain.NewConflictError("username is taken")
		}
		if attempt == referralCodeAttempts {
			return nil, fmt.Errorf("create user: no free referral code after %d attempts", attempt)
		}
	}

	if referrerID != nil && s.hierarchy != nil {
		if _, err := s.hierarchy.ResolveAncestors(ctx, userID); err != nil {
			// The next distribution resolves and stores them instead.
			s.logger.Warn("hierarchy snapshot failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	token, err := generateJWT(userID, "user", now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", userID), zap.Bool("referred", referrerID != nil))
	return &AuthResponse{Token: token, UserID: userID, ReferralCode: code}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var (
		userID int64
		hashed string
		role   string
		status models.UserStatus
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password, role, status FROM users WHERE username = $1`,
		strings.ToLower(req.Username)).Scan(&userID, &hashed, &role, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewUnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", req.Username, err)
	}
	if !verifyPassword(req.Password, hashed) {
		return nil, domain.NewUnauthorizedError("invalid credentials")
	}
	if status != models.UserStatusActive {
		return nil, domain.NewUnauthorizedError("account is not active")
	}

	token, err := generateJWT(userID, role, s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, UserID: userID}, nil
}

// Logout revokes token until it would have expired anyway. Without redis it is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.redis == nil {
		return nil
	}
	expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	return s.redis.Set(ctx, RevokedTokenKey(token), "1", expiry).Err()
}

// RevokedTokenKey is the redis key marking token as logged out.
func RevokedTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedTokenPrefix + hex.EncodeToString(sum[:])
}

func (s *AuthService) referrerByCode(ctx context.Context, code string) (int64, error) {
	var (
		id     int64
		status models.UserStatus
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status FROM users WHERE referral_code = $1`,
		strings.ToUpper(code)).Scan(&id, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NewValidationError("unknown referral code")
	}
	if err != nil {
		return 0, fmt.Errorf("load referrer: %w", err)
	}
	if status != models.UserStatusActive {
		return 0, domain.NewValidationError("referrer is not active")
	}
	return id, nil
}

func (s *AuthService) internPosition(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM positions WHERE is_intern ORDER BY level LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NewConfigurationError("no intern position configured")
	}
	if err != nil {
		return 0, fmt.Errorf("load intern position: %w", err)
	}
	return id, nil
}

// ErrNoSigningKey is returned while jwt.secret_key is empty.
var ErrNoSigningKey = errors.New("jwt secret key is not configured")

// SigningKey returns the HMAC key for access tokens and refuses an empty one.
func SigningKey() ([]byte, error) {
	key := viper.GetString("jwt.secret_key")
	if strings.TrimSpace(key) == "" {
		return nil, ErrNoSigningKey
	}
	return []byte(key), nil
}

func generateJWT(userID int64, role string, now time.Time) (string, error) {
	key, err := SigningKey()
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString(key)
}

func newReferralCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return referralCodeEncoding.EncodeToString(b)[:referralCodeLength], nil
}
