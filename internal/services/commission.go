package services

import (
	"fmt"

	"github.com/taskearn/ledger/internal/models"
)

// commissionCredits prices each present ancestor. Levels that round to zero are dropped.
func commissionCredits(event models.CommissionEvent, rate models.Rate, ancestors models.Ancestors, base int64) []models.CommissionCredit {
	credits := []models.CommissionCredit{}
	for _, level := range models.HierarchyLevels {
		ancestorID := ancestors.Get(level)
		if ancestorID == nil {
			continue
		}
		amount := rate.AmountFor(level, base)
		if amount <= 0 {
			continue
		}
		credits = append(credits, models.CommissionCredit{
			Level:  level,
			UserID: *ancestorID,
			Amount: amount,
			Type:   event.CommissionType(level),
		})
	}
	return credits
}

func commissionEntries(credits []models.CommissionCredit, sourceUserID int64) []models.Entry {
	entries := make([]models.Entry, 0, len(credits))
	for _, c := range credits {
		entries = append(entries, models.Entry{
			UserID:      c.UserID,
			Amount:      c.Amount,
			Type:        c.Type,
			Description: fmt.Sprintf("%s from user %d", c.Type, sourceUserID),
		})
	}
	return entries
}
