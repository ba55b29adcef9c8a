package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from   string
		to     string
		wantOK bool
	}{
		{StrategyStatusDraft, StrategyStatusActive, true},
		{StrategyStatusDraft, StrategyStatusPaused, false},
		{StrategyStatusDraft, StrategyStatusStopped, true},
		{StrategyStatusActive, StrategyStatusPaused, true},
		{StrategyStatusActive, StrategyStatusStopped, true},
		{StrategyStatusActive, StrategyStatusActive, false},
		{StrategyStatusPaused, StrategyStatusActive, true},
		{StrategyStatusPaused, StrategyStatusStopped, true},
		{StrategyStatusStopped, StrategyStatusActive, false},
		{StrategyStatusStopped, StrategyStatusStopped, false},
		{StrategyStatusActive, "UNKNOWN", false},
	}

	for _, tt := range tests {
		s := &Strategy{Status: tt.from}
		require.Equal(t, tt.wantOK, s.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
