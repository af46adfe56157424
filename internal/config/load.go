package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default returns the built-in configuration every layer is ultimately
// merged on top of.
func Default() Config {
	return Config{Concurrency: DefaultConcurrency()}
}

// FromTOML decodes one configuration layer from TOML bytes, migrating the
// deprecated root-level change_ps1/force_activate keys into the shell
// sub-table and logging a warning that names sourcePath (spec.md §4.2
// "Deprecated keys").
func FromTOML(data []byte, sourcePath string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", sourcePath, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", sourcePath, err)
	}

	if v, ok := raw["change_ps1"]; ok {
		if b, ok := v.(bool); ok && cfg.Shell.ChangePs1 == nil {
			cfg.Shell.ChangePs1 = &b
		}

		logger.Warn("deprecated config key migrated", "key", "change_ps1", "to", "shell.change-ps1", "source", sourcePath)
	}

	if v, ok := raw["force_activate"]; ok {
		if b, ok := v.(bool); ok && cfg.Shell.ForceActivate == nil {
			cfg.Shell.ForceActivate = &b
		}

		logger.Warn("deprecated config key migrated", "key", "force_activate", "to", "shell.force-activate", "source", sourcePath)
	}

	cfg.LoadedFrom = []string{sourcePath}

	return cfg, nil
}

// FromPath reads and decodes one configuration layer from a file on disk.
// A missing file is not an error; it yields the zero Config.
func FromPath(path string, logger *slog.Logger) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	return FromTOML(data, path, logger)
}

// SystemPath, UserPath, and WorkspacePath resolve the three well-known
// config locations (spec.md §6), honoring PIXI_HOME/XDG_CONFIG_HOME
// overrides through env.
func SystemPath(env func(string) (string, bool)) string {
	return filepath.Join(string(filepath.Separator), "etc", "pixi", "config.toml")
}

func UserPath(env func(string) (string, bool)) string {
	if home, ok := env("PIXI_HOME"); ok && home != "" {
		return filepath.Join(home, "config.toml")
	}

	if xdg, ok := env("XDG_CONFIG_HOME"); ok && xdg != "" {
		return filepath.Join(xdg, "pixi", "config.toml")
	}

	home, _ := env("HOME")

	return filepath.Join(home, ".config", "pixi", "config.toml")
}

func WorkspacePath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".pixi", "config.toml")
}

// Load layers system, user/global, and workspace configuration in that
// order (lowest to highest priority), then applies environment-variable
// overrides (spec.md §4.2 "Environment-variable overrides").
func Load(workspaceRoot string, env func(string) (string, bool), logger *slog.Logger) (Config, error) {
	cfg := Default()

	for _, path := range []string{SystemPath(env), UserPath(env), WorkspacePath(workspaceRoot)} {
		layer, err := FromPath(path, logger)
		if err != nil {
			return Config{}, err
		}

		cfg = cfg.Merge(layer)
	}

	return ApplyEnvOverrides(cfg, env, logger), nil
}

// WithCLIConfig merges a CLI-supplied configuration layer on top, the
// final and highest-priority layer (spec.md §1, §4.2).
func (c Config) WithCLIConfig(cli Config) Config {
	return c.Merge(cli)
}

// ApplyEnvOverrides applies the environment-variable overrides of spec.md
// §4.2: proxy variables take effect only when the config itself declares
// no proxies. When it does declare them, a warning is logged whenever
// http_proxy, HTTPS_PROXY, all_proxy or no_proxy is set; the values are not
// compared with the configured ones. PIXI_HOME, PIXI_CACHE_DIR, and the TLS-roots variable always override
// the corresponding fields.
func ApplyEnvOverrides(cfg Config, env func(string) (string, bool), logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ProxyConfig.isDefault() {
		var proxy ProxyConfig

		if v, ok := firstEnv(env, "http_proxy", "HTTP_PROXY"); ok {
			proxy.HTTP = &v
		}

		if v, ok := firstEnv(env, "https_proxy", "HTTPS_PROXY"); ok {
			proxy.HTTPS = &v
		}

		if v, ok := firstEnv(env, "all_proxy", "ALL_PROXY"); ok {
			if proxy.HTTP == nil {
				proxy.HTTP = &v
			}

			if proxy.HTTPS == nil {
				proxy.HTTPS = &v
			}
		}

		if v, ok := firstEnv(env, "no_proxy", "NO_PROXY"); ok {
			proxy.NonProxyHosts = splitHosts(v)
		}

		cfg.ProxyConfig = proxy
	} else if _, ok := firstEnv(env, "http_proxy", "HTTPS_PROXY", "all_proxy", "no_proxy"); ok {
		logger.Warn("ignoring proxy environment variables: config already declares proxy-config")
	}

	if home, ok := env("PIXI_HOME"); ok && home != "" {
		cfg.Home = home
	}

	if cacheDir, ok := env("PIXI_CACHE_DIR"); ok && cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	if tlsRoots, ok := env("PIXI_TLS_ROOT_CERTS"); ok && tlsRoots != "" {
		cfg.TLSRootCerts = TLSRootCerts(tlsRoots)
	}

	return cfg
}

func firstEnv(env func(string) (string, bool), names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := env(n); ok && v != "" {
			return v, true
		}
	}

	return "", false
}

func splitHosts(raw string) []string {
	var hosts []string

	start := 0

	for i := 0; i < len(raw); i++ {
		if raw[i] == ',' {
			if h := raw[start:i]; h != "" {
				hosts = append(hosts, h)
			}

			start = i + 1
		}
	}

	if h := raw[start:]; h != "" {
		hosts = append(hosts, h)
	}

	return hosts
}
