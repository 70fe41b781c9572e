// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"postgres://u:p@db:5432/plume", "pgx5://u:p@db:5432/plume"},
		{"postgresql://u:p@db/plume?sslmode=disable", "pgx5://u:p@db/plume?sslmode=disable"},
		{"pgx5://u@db/plume", "pgx5://u@db/plume"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, convertToPgx5DSN(tt.in))
	}
}
