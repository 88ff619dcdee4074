// Package migrations embeds the SQL schema for the relational providers.
// Each dialect lives in its own directory; callers take an fs.Sub of it.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
