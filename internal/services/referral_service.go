package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

const inviteQRSize = 256

type downliner interface {
	Downline(ctx context.Context, referrerID int64) ([]models.ReferralEdge, error)
}

// ReferralService hands out invite links and shows a user's stored downline.
type ReferralService struct {
	db        *sql.DB
	redis     *redis.Client
	hierarchy downliner
	baseURL   string
	cacheTTL  time.Duration
}

// NewReferralService caches rendered QR codes in redis when client is non-nil.
func NewReferralService(db *sql.DB, client *redis.Client, hierarchy downliner, baseURL string) *ReferralService {
	return &ReferralService{
		db:        db,
		redis:     client,
		hierarchy: hierarchy,
		baseURL:   baseURL,
		cacheTTL:  24 * time.Hour,
	}
}

// InviteLink returns the registration link carrying the user's referral code.
func (s *ReferralService) InviteLink(ctx context.Context, userID int64) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT referral_code FROM users WHERE id = $1`, userID).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.NewNotFoundError(fmt.Sprintf("user %d", userID))
	}
	if err != nil {
		return "", fmt.Errorf("load referral code of user %d: %w", userID, err)
	}

	link, err := url.Parse(s.baseURL)
	if err != nil {
		return "", domain.NewConfigurationError(fmt.Sprintf("invalid invite base url %q", s.baseURL))
	}
	query := link.Query()
	query.Set("ref", code)
	link.RawQuery = query.Encode()
	return link.String(), nil
}

// InviteQRCode renders the invite link as a PNG.
func (s *ReferralService) InviteQRCode(ctx context.Context, userID int64) ([]byte, string, error) {
	link, err := s.InviteLink(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	key := fmt.Sprintf("invite:qr:%d", userID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			return cached, link, nil
		}
	}

	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(inviteQRSize)); err != nil {
		return nil, "", err
	}

	if s.redis != nil {
		// A failed cache write only costs a re-render next time.
		_ = s.redis.Set(ctx, key, buf.Bytes(), s.cacheTTL).Err()
	}
	return buf.Bytes(), link, nil
}

func (s *ReferralService) Downline(ctx context.Context, userID int64) ([]models.ReferralEdge, error) {
	return s.hierarchy.Downline(ctx, userID)
}
