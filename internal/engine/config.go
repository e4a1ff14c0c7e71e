package engine

import "errors"

// Config holds the configuration an Engine is constructed with (§5:
// collaborator contract).
//
// Grounded on the teacher's internal/app.Config: a flat struct validated by
// a constructor rather than by tag-driven reflection, since there are only
// a handful of fields and no format to parse them out of.
type Config struct {
	// WorkspaceRoot is the directory build reads .firm files from and
	// serialize/deserialize read and write the cache files in.
	WorkspaceRoot string

	LogFormat string // "json" or "text" (default)
	LogLevel  string // "debug", "info", "warn", "error" (default "info")
}

// NewConfig validates cfg and returns a copy, the way the teacher's
// app.NewConfig validates GridPath before an App is built from it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkspaceRoot == "" {
		return nil, errors.New("engine: WorkspaceRoot is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
