// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migrations embeds the SQL schema applied by the migration runner.
package migrations

import "embed"

// FS holds the NNNN_name.{up,down}.sql files at its root.
//
//go:embed *.sql
var FS embed.FS
