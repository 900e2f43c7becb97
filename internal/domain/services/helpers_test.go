package services

import (
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestService(policy *entities.RiskPolicy) *analysisService {
	svc, _ := NewAnalysisServiceWithClock(policy, func() time.Time { return fixedNow }).(*analysisService)
	return svc
}

func float(v float64) *float64 { return &v }

func flag(v bool) *bool { return &v }
