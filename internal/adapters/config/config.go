package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	configDir       = ".aconomy"
	configFile      = "config.toml"
	envPrefix       = "AW"
	fileMode        = 0o600
	dirMode         = 0o700
	tempFilePattern = ".config-*.toml.tmp"
)

const (
	KeyVersion          = "version"
	KeyEndpoint         = "stream.endpoint"
	KeyHandshakeTimeout = "stream.handshake_timeout"
	KeyReadLimit        = "stream.read_limit"
	KeyArchiveEnabled   = "archive.enabled"
	KeyArchivePath      = "archive.path"
	KeySecretsBackend   = "secrets.backend"
	KeySecretsDir       = "secrets.dir"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyLogFile          = "log.file"
)

const (
	BackendChain = "chain"
	BackendFile  = "file"
	BackendPass  = "pass"

	FormatText = "text"
	FormatJSON = "json"
)

type StreamConfig struct {
	Endpoint         string
	HandshakeTimeout time.Duration
	ReadLimit        int64
}

type ArchiveConfig struct {
	Enabled bool
	Path    string
}

type SecretsConfig struct {
	Backend string
	Dir     string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type Config struct {
	// Path is the config file the values were read from, or where a new one is written.
	Path    string
	Stream  StreamConfig
	Archive ArchiveConfig
	Secrets SecretsConfig
	Log     LogConfig
}

var writeMu sync.Mutex

// Defaults returns the configuration used when no file or environment override exists.
func Defaults() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Path: filepath.Join(dir, configFile),
		Stream: StreamConfig{
			HandshakeTimeout: 10 * time.Second,
			ReadLimit:        8 << 20,
		},
		Archive: ArchiveConfig{Enabled: true, Path: filepath.Join(dir, "turns.db")},
		Secrets: SecretsConfig{Backend: BackendChain, Dir: filepath.Join(dir, "secrets")},
		Log:     LogConfig{Level: "info", Format: FormatText, File: filepath.Join(dir, "aw.log")},
	}, nil
}

// Dir is the per-user directory holding config, secrets, archive and logs.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// Load reads the config file (explicitPath, or config.toml under Dir) through v and
// applies AW_* environment overrides. A missing file is not an error.
func Load(v *viper.Viper, explicitPath string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	defaults, err := Defaults()
	if err != nil {
		return Config{}, err
	}

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Dir(defaults.Path))
	}

	v.SetDefault(KeyEndpoint, defaults.Stream.Endpoint)
	v.SetDefault(KeyHandshakeTimeout, defaults.Stream.HandshakeTimeout)
	v.SetDefault(KeyReadLimit, defaults.Stream.ReadLimit)
	v.SetDefault(KeyArchiveEnabled, defaults.Archive.Enabled)
	v.SetDefault(KeyArchivePath, defaults.Archive.Path)
	v.SetDefault(KeySecretsBackend, defaults.Secrets.Backend)
	v.SetDefault(KeySecretsDir, defaults.Secrets.Dir)
	v.SetDefault(KeyLogLevel, defaults.Log.Level)
	v.SetDefault(KeyLogFormat, defaults.Log.Format)
	v.SetDefault(KeyLogFile, defaults.Log.File)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if version := v.GetInt(KeyVersion); version > currentSchemaVersion {
		return Config{}, fmt.Errorf("unsupported config schema version %d (current %d)", version, currentSchemaVersion)
	}

	cfg := Config{
		Path: defaults.Path,
		Stream: StreamConfig{
			Endpoint:         strings.TrimSpace(v.GetString(KeyEndpoint)),
			HandshakeTimeout: v.GetDuration(KeyHandshakeTimeout),
			ReadLimit:        v.GetInt64(KeyReadLimit),
		},
		Archive: ArchiveConfig{
			Enabled: v.GetBool(KeyArchiveEnabled),
			Path:    expandHome(v.GetString(KeyArchivePath)),
		},
		Secrets: SecretsConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString(KeySecretsBackend))),
			Dir:     expandHome(v.GetString(KeySecretsDir)),
		},
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
			File:   expandHome(v.GetString(KeyLogFile)),
		},
	}
	if explicitPath != "" {
		cfg.Path = explicitPath
	} else if used := v.ConfigFileUsed(); used != "" {
		cfg.Path = used
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Secrets.Backend {
	case BackendChain, BackendFile, BackendPass:
	default:
		errs = append(errs, fmt.Errorf("secrets.backend must be one of chain, file, pass; got %q", c.Secrets.Backend))
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json; got %q", c.Log.Format))
	}
	if c.Stream.HandshakeTimeout < 0 {
		errs = append(errs, fmt.Errorf("stream.handshake_timeout must not be negative; got %s", c.Stream.HandshakeTimeout))
	}
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Path) == "" {
		errs = append(errs, errors.New("archive.path is empty while the archive is enabled"))
	}
	return errors.Join(errs...)
}

// Encode renders cfg as a config file.
func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(toSchema(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Save writes cfg to path, replacing any existing file atomically.
func Save(path string, cfg Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	return writeFile(path, data)
}

// SetEndpoint updates stream.endpoint in the file at path and keeps every other key as
// written. A missing file is created.
func SetEndpoint(path, endpoint string) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	values := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read config file: %w", err)
	}

	if version, ok := values[KeyVersion].(int64); ok && version > currentSchemaVersion {
		return fmt.Errorf("unsupported config schema version %d (current %d)", version, currentSchemaVersion)
	}
	values[KeyVersion] = int64(currentSchemaVersion)

	stream, _ := values["stream"].(map[string]interface{})
	if stream == nil {
		stream = map[string]interface{}{}
	}
	stream["endpoint"] = strings.TrimSpace(endpoint)
	values["stream"] = stream

	encoded, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	return writeFile(path, encoded)
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tempFile.Chmod(fileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	cleanup = false

	return nil
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
