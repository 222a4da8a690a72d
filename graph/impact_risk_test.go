package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevel(t *testing.T) {
	cases := []struct {
		name         string
		flows        int
		presentation bool
		implementers int
		inheritors   int
		want         RiskLevel
	}{
		{"four distinct flows is critical", 4, false, 0, 0, RiskCritical},
		{"two flows is high", 2, false, 0, 0, RiskHigh},
		{"three flows is high", 3, false, 0, 0, RiskHigh},
		{"one flow reaching presentation is medium", 1, true, 0, 0, RiskMedium},
		{"one flow with implementers is medium", 1, false, 2, 0, RiskMedium},
		{"one flow with inheritors is medium", 1, false, 0, 1, RiskMedium},
		{"zero flows no other factors is low", 0, false, 0, 0, RiskLow},
		{"one flow no other factors is low", 1, false, 0, 0, RiskLow},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, riskLevel(c.flows, c.presentation, c.implementers, c.inheritors))
		})
	}
}

func TestRegexpEscapeDot(t *testing.T) {
	assert.Equal(t, "Communication\\.Sub", regexpEscapeDot("Communication.Sub"))
	assert.Equal(t, "NoDots", regexpEscapeDot("NoDots"))
}

func TestNonNilCallers(t *testing.T) {
	assert.Equal(t, []CallerInfo{}, nonNilCallers(nil))
	existing := []CallerInfo{{}}
	assert.Equal(t, existing, nonNilCallers(existing))
}
