// Package appfs exposes embedded application assets (DB migrations).
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
