package services

import (
	"math"
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

const (
	maxRiskScore = 100
	minRiskScore = 0

	// cleanComponentFloor bounds the score of a component without any
	// vulnerability signal: age and policy deductions alone cannot push it lower
	cleanComponentFloor = 80

	// vacuousOverallScore is reported for documents without components.
	// It is a compatibility convention, not a security verdict.
	vacuousOverallScore = 100

	kevDeduction                = 30
	unapprovedLicenseDeduction  = 10
	inactiveMaintainerDeduction = 5
)

// releaseDateLayouts are the accepted releaseDate encodings
var releaseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ScoreComponent computes the 0-100 risk score of one component.
// Deductions stack in order: CVSS severity, KEV, EPSS, package age, policy.
func (s *analysisService) ScoreComponent(component entities.Component, vulnerabilities []entities.Vulnerability, policy entities.ComponentPolicy) int {
	maxCVSS, maxEPSS, kev := 0.0, 0.0, false
	for _, v := range vulnerabilities {
		maxCVSS = math.Max(maxCVSS, v.MaxCVSS())
		maxEPSS = math.Max(maxEPSS, v.EPSSScore())
		kev = kev || v.IsKEV()
	}

	score := maxRiskScore
	score -= cvssDeduction(maxCVSS)
	if kev {
		score -= kevDeduction
	}
	score -= epssDeduction(maxEPSS)
	score -= ageDeduction(component.ReleaseDate, s.now())
	if policy.LicenseApproved != nil && !*policy.LicenseApproved {
		score -= unapprovedLicenseDeduction
	}
	if policy.MaintainerActive != nil && !*policy.MaintainerActive {
		score -= inactiveMaintainerDeduction
	}

	if len(vulnerabilities) == 0 && !kev && maxEPSS == 0 && score < cleanComponentFloor {
		score = cleanComponentFloor
	}

	return clampScore(score)
}

// CalculateOverallRisk returns the rounded mean of the component scores
func (s *analysisService) CalculateOverallRisk(scores []int) int {
	if len(scores) == 0 {
		return vacuousOverallScore
	}
	sum := 0
	for _, score := range scores {
		sum += score
	}
	return clampScore(int(math.Round(float64(sum) / float64(len(scores)))))
}

func cvssDeduction(score float64) int {
	switch {
	case score >= 9.0:
		return 50
	case score >= 7.0:
		return 40
	case score >= 5.0:
		return 30
	case score >= 3.0:
		return 20
	case score > 0:
		return 10
	default:
		return 0
	}
}

func epssDeduction(probability float64) int {
	switch {
	case probability > 0.5:
		return 20
	case probability > 0.2:
		return 10
	default:
		return 0
	}
}

func ageDeduction(releaseDate string, now time.Time) int {
	released, ok := parseReleaseDate(releaseDate)
	if !ok {
		return 0
	}
	months := monthsBetween(released, now)
	switch {
	case months > 60:
		return 15
	case months > 36:
		return 10
	case months > 24:
		return 5
	default:
		return 0
	}
}

func parseReleaseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthsBetween counts whole calendar months from start to end
func monthsBetween(start, end time.Time) int {
	start, end = start.UTC(), end.UTC()
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}

func clampScore(score int) int {
	return max(minRiskScore, min(maxRiskScore, score))
}
