package config

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Stream  streamSchema  `toml:"stream"`
	Archive archiveSchema `toml:"archive"`
	Secrets secretsSchema `toml:"secrets"`
	Log     logSchema     `toml:"log"`
}

type streamSchema struct {
	Endpoint         string `toml:"endpoint"`
	HandshakeTimeout string `toml:"handshake_timeout"`
	ReadLimit        int64  `toml:"read_limit"`
}

type archiveSchema struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type secretsSchema struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported config schema version %d (current %d)", s.Version, currentSchemaVersion)
	}
	return nil
}

func toSchema(cfg Config) fileSchema {
	return fileSchema{
		Version: currentSchemaVersion,
		Stream: streamSchema{
			Endpoint:         cfg.Stream.Endpoint,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout.String(),
			ReadLimit:        cfg.Stream.ReadLimit,
		},
		Archive: archiveSchema{Enabled: cfg.Archive.Enabled, Path: cfg.Archive.Path},
		Secrets: secretsSchema{Backend: cfg.Secrets.Backend, Dir: cfg.Secrets.Dir},
		Log:     logSchema{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File},
	}
}
