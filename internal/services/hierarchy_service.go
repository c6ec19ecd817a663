package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

// HierarchyService resolves a user's three upstream referrers. Stored edges are a
// snapshot taken the first time a level is resolved and are never rewritten.
type HierarchyService struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewHierarchyService(db *sql.DB, logger *zap.Logger) *HierarchyService {
	return &HierarchyService{
		db:     db,
		logger: logging.OrNop(logger).Named("hierarchy"),
		now:    time.Now,
	}
}

type chainNode struct {
	status     models.UserStatus
	referrerID *int64
}

// ResolveAncestors returns the A, B and C ancestors of userID and materializes any level
// that had no stored edge yet. A missing or banned ancestor ends the chain at that level.
func (s *HierarchyService) ResolveAncestors(ctx context.Context, userID int64) (models.Ancestors, error) {
	ancestors, created, err := s.resolve(ctx, userID)
	if err != nil {
		return models.Ancestors{}, err
	}
	if created {
		return ancestors, nil
	}

	// Another resolver stored an edge first; its snapshot wins.
	ancestors, _, err = s.resolve(ctx, userID)
	return ancestors, err
}

// resolve reports created=false when an edge it tried to store already existed.
func (s *HierarchyService) resolve(ctx context.Context, userID int64) (models.Ancestors, bool, error) {
	stored, err := s.storedEdges(ctx, userID)
	if err != nil {
		return models.Ancestors{}, false, err
	}

	self, found, err := s.node(ctx, userID)
	if err != nil {
		return models.Ancestors{}, false, err
	}
	if !found {
		return models.Ancestors{}, false, domain.NewNotFoundError(fmt.Sprintf("user %d", userID))
	}

	var (
		ancestors models.Ancestors
		missing   []models.ReferralEdge
		next      = self.referrerID
		visited   = map[int64]bool{userID: true}
	)
	for _, level := range models.HierarchyLevels {
		candidate, fromSnapshot := stored[level]
		if !fromSnapshot {
			if next == nil {
				break
			}
			candidate = *next
		}
		if visited[candidate] {
			s.logger.Warn("referral cycle detected", zap.Int64("user_id", userID), zap.Int64("ancestor_id", candidate))
			break
		}

		node, found, err := s.node(ctx, candidate)
		if err != nil {
			return models.Ancestors{}, false, err
		}
		if !found || node.status == models.UserStatusBanned {
			break
		}

		visited[candidate] = true
		ancestors.Set(level, candidate)
		if !fromSnapshot {
			missing = append(missing, models.ReferralEdge{UserID: userID, ReferrerID: candidate, Level: level})
		}
		next = node.referrerID
	}

	created := true
	for _, edge := range missing {
		inserted, err := s.insertEdge(ctx, edge)
		if err != nil {
			return models.Ancestors{}, false, err
		}
		created = created && inserted
	}
	return ancestors, created, nil
}

func (s *HierarchyService) storedEdges(ctx context.Context, userID int64) (map[models.HierarchyLevel]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT referrer_id, level
		FROM referral_hierarchy
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("load hierarchy of user %d: %w", userID, err)
	}
	defer rows.Close()

	edges := make(map[models.HierarchyLevel]int64, len(models.HierarchyLevels))
	for rows.Next() {
		var (
			referrerID int64
			level      models.HierarchyLevel
		)
		if err := rows.Scan(&referrerID, &level); err != nil {
			return nil, err
		}
		edges[level] = referrerID
	}
	return edges, rows.Err()
}

func (s *HierarchyService) node(ctx context.Context, userID int64) (chainNode, bool, error) {
	var (
		node       chainNode
		referrerID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT status, referrer_id FROM users WHERE id = $1`, userID).
		Scan(&node.status, &referrerID)
	if errors.Is(err, sql.ErrNoRows) {
		return chainNode{}, false, nil
	}
	if err != nil {
		return chainNode{}, false, fmt.Errorf("load referrer %d: %w", userID, err)
	}
	if referrerID.Valid {
		node.referrerID = &referrerID.Int64
	}
	return node, true, nil
}

func (s *HierarchyService) insertEdge(ctx context.Context, edge models.ReferralEdge) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO referral_hierarchy (user_id, referrer_id, level, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		edge.UserID, edge.ReferrerID, string(edge.Level), s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("store %s edge of user %d: %w", edge.Level, edge.UserID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Downline lists the stored edges that point at referrerID, A level first.
func (s *HierarchyService) Downline(ctx context.Context, referrerID int64) ([]models.ReferralEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, referrer_id, level, created_at
		FROM referral_hierarchy
		WHERE referrer_id = $1
		ORDER BY level, user_id`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("load downline of user %d: %w", referrerID, err)
	}
	defer rows.Close()

	edges := []models.ReferralEdge{}
	for rows.Next() {
		var edge models.ReferralEdge
		if err := rows.Scan(&edge.UserID, &edge.ReferrerID, &edge.Level, &edge.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}
