package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/taskearn/ledger/internal/models"
)

// RateSpec is one position's commission row as written in config.yaml:
//
//	commission:
//	  task_income:
//	    p1: {mode: percent, a: 8, b: 3, c: 1}
type RateSpec struct {
	Mode string `mapstructure:"mode"`
	A    string `mapstructure:"a"`
	B    string `mapstructure:"b"`
	C    string `mapstructure:"c"`
}

// RateTables maps event -> lower-cased position name -> rate.
type RateTables map[models.CommissionEvent]map[string]models.Rate

var rateKeys = map[models.CommissionEvent]string{
	models.EventTaskIncome:      "commission.task_income",
	models.EventPositionUpgrade: "commission.position_upgrade",
}

// LoadRateTables parses the commission section. A malformed row is an error, never a zero rate.
func LoadRateTables() (RateTables, error) {
	tables := make(RateTables, len(rateKeys))
	for event, key := range rateKeys {
		specs := map[string]RateSpec{}
		if err := viper.UnmarshalKey(key, &specs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		rates := make(map[string]models.Rate, len(specs))
		for position, spec := range specs {
			rate, err := spec.Rate()
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", key, position, err)
			}
			rates[strings.ToLower(position)] = rate
		}
		tables[event] = rates
	}
	return tables, nil
}

// Rate converts the config row into a models.Rate.
func (s RateSpec) Rate() (models.Rate, error) {
	mode := models.RateModePercent
	switch strings.ToUpper(strings.TrimSpace(s.Mode)) {
	case "", string(models.RateModePercent):
	case string(models.RateModeFixed):
		mode = models.RateModeFixed
	default:
		return models.Rate{}, fmt.Errorf("unknown rate mode %q", s.Mode)
	}

	values := make([]decimal.Decimal, 3)
	for i, raw := range []string{s.A, s.B, s.C} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			raw = "0"
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return models.Rate{}, fmt.Errorf("invalid rate value %q: %w", raw, err)
		}
		if d.IsNegative() {
			return models.Rate{}, fmt.Errorf("negative rate value %q", raw)
		}
		values[i] = d
	}
	return models.Rate{Mode: mode, A: values[0], B: values[1], C: values[2]}, nil
}
