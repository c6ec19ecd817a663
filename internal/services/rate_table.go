package services

import (
	"fmt"
	"strings"

	"github.com/taskearn/ledger/internal/config"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/models"
)

// ConfigRateTable serves commission rates loaded from configuration.
type ConfigRateTable struct {
	tables config.RateTables
}

func NewConfigRateTable(tables config.RateTables) *ConfigRateTable {
	return &ConfigRateTable{tables: tables}
}

// RateFor fails closed: an unknown event or position is a configuration error, never a zero rate.
func (t *ConfigRateTable) RateFor(event models.CommissionEvent, positionName string) (models.Rate, error) {
	rates, ok := t.tables[event]
	if !ok {
		return models.Rate{}, domain.NewConfigurationError(fmt.Sprintf("no commission table for %s", event))
	}
	rate, ok := rates[strings.ToLower(strings.TrimSpace(positionName))]
	if !ok {
		return models.Rate{}, domain.NewConfigurationError(fmt.Sprintf("no %s commission rate for position %q", event, positionName))
	}
	return rate, nil
}
