package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/urbansignals/floodwatch/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "run-1",
			Year:      2019,
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{FloodComplaints: 1234, Joined: 1200},
			CreatedAt: created,
		},
		{
			ID:        "run-2",
			Year:      2020,
			Status:    model.RunStatusFailed,
			CreatedAt: created,
		},
	}

	var sb strings.Builder
	formatRunsList(&sb, runs)
	out := sb.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "-", "runs without a result show placeholders")
	assert.Contains(t, out, "2026-03-14 09:30")
}
