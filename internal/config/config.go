// Package config implements the layered configuration merge engine (C2):
// system, user/global, workspace, and CLI-supplied configuration layers
// merged with a "right wins" discipline that has specific, named
// exceptions (spec.md §4.2).
package config

// TLSRootCerts selects which root certificate store is trusted for TLS
// connections.
type TLSRootCerts string

const (
	TLSRootCertsWebpki TLSRootCerts = "webpki"
	TLSRootCertsNative TLSRootCerts = "native"
	TLSRootCertsAll    TLSRootCerts = "all"
)

// RunPostLinkScripts controls whether (and how unsafely) post-link scripts
// run after package installation. Post-link execution itself is out of
// scope for this module (an external collaborator's concern); the setting
// is still carried end-to-end because declaring it is ambient config, not
// a feature this module performs.
type RunPostLinkScripts string

const (
	RunPostLinkScriptsDisabled RunPostLinkScripts = "false"
	RunPostLinkScriptsInsecure RunPostLinkScripts = "insecure"
)

// KeyringProvider selects how PyPI registry credentials are retrieved.
type KeyringProvider string

const (
	KeyringProviderDisabled  KeyringProvider = "disabled"
	KeyringProviderSubprocess KeyringProvider = "subprocess"
)

// RepodataChannelConfig holds the repodata format toggles for one channel.
// Pointers distinguish "unset, inherit the default" from an explicit
// true/false (spec.md §4.2: "right field wins when Some, else left").
type RepodataChannelConfig struct {
	DisableJLAP    *bool `toml:"disable-jlap"`
	DisableBzip2   *bool `toml:"disable-bzip2"`
	DisableZstd    *bool `toml:"disable-zstd"`
	DisableSharded *bool `toml:"disable-sharded"`
}

// Merge implements RepodataChannelConfig's field-wise "right wins when
// Some, else left" rule.
func (c RepodataChannelConfig) Merge(other RepodataChannelConfig) RepodataChannelConfig {
	return RepodataChannelConfig{
		DisableJLAP:    mergeBoolPtr(c.DisableJLAP, other.DisableJLAP),
		DisableBzip2:   mergeBoolPtr(c.DisableBzip2, other.DisableBzip2),
		DisableZstd:    mergeBoolPtr(c.DisableZstd, other.DisableZstd),
		DisableSharded: mergeBoolPtr(c.DisableSharded, other.DisableSharded),
	}
}

// RepodataConfig is the global repodata-fetching configuration: default
// toggles plus per-channel overrides.
type RepodataConfig struct {
	RepodataChannelConfig
	PerChannel map[string]RepodataChannelConfig `toml:"per-channel"`
}

// Merge implements spec.md §4.2's "s3_options, repodata_config.per_channel:
// map merge; for overlapping keys, right wins at the entry level, and
// RepodataChannelConfig itself is field-wise merged".
func (c RepodataConfig) Merge(other RepodataConfig) RepodataConfig {
	merged := RepodataConfig{
		RepodataChannelConfig: c.RepodataChannelConfig.Merge(other.RepodataChannelConfig),
		PerChannel:            map[string]RepodataChannelConfig{},
	}

	for name, cfg := range c.PerChannel {
		merged.PerChannel[name] = cfg
	}

	for name, cfg := range other.PerChannel {
		if existing, ok := merged.PerChannel[name]; ok {
			merged.PerChannel[name] = existing.Merge(cfg)
		} else {
			merged.PerChannel[name] = cfg
		}
	}

	if len(merged.PerChannel) == 0 {
		merged.PerChannel = nil
	}

	return merged
}

// PyPIConfig is the default index configuration for PyPI dependencies.
type PyPIConfig struct {
	IndexURL          *string         `toml:"index-url"`
	ExtraIndexURLs    []string        `toml:"extra-index-urls"`
	KeyringProvider   *KeyringProvider `toml:"keyring-provider"`
	AllowInsecureHost []string        `toml:"allow-insecure-host"`
}

// Merge implements spec.md §4.2's PyPIConfig rule: extra_index_urls and
// allow_insecure_host concatenate left-then-right; index_url and
// keyring_provider are right-wins-if-Some.
func (c PyPIConfig) Merge(other PyPIConfig) PyPIConfig {
	return PyPIConfig{
		IndexURL:          mergeStringPtr(c.IndexURL, other.IndexURL),
		ExtraIndexURLs:    append(append([]string{}, c.ExtraIndexURLs...), other.ExtraIndexURLs...),
		KeyringProvider:   mergeKeyringPtr(c.KeyringProvider, other.KeyringProvider),
		AllowInsecureHost: append(append([]string{}, c.AllowInsecureHost...), other.AllowInsecureHost...),
	}
}

// S3Options configures one S3-compatible bucket used as a channel mirror.
type S3Options struct {
	EndpointURL    string `toml:"endpoint-url"`
	Region         string `toml:"region"`
	ForcePathStyle *bool  `toml:"force-path-style"`
}

// ConcurrencyConfig bounds the number of concurrent solves/downloads. The
// zero value is never used directly; Default() supplies the built-in
// defaults the "keep non-default" merge rule compares against.
type ConcurrencyConfig struct {
	Solves    int `toml:"solves"`
	Downloads int `toml:"downloads"`
}

// DefaultConcurrency is the built-in default, used both to initialize a
// fresh Config and as the comparison baseline for ConcurrencyConfig.Merge's
// "keep non-default" rule.
func DefaultConcurrency() ConcurrencyConfig {
	return ConcurrencyConfig{Solves: 4, Downloads: 4}
}

// Merge implements spec.md §4.2's ConcurrencyConfig rule: for each field,
// if the right side equals the built-in default, keep left; otherwise take
// right. This ensures an unset CLI option does not clobber a user setting.
func (c ConcurrencyConfig) Merge(other ConcurrencyConfig) ConcurrencyConfig {
	def := DefaultConcurrency()

	merged := c

	if other.Solves != def.Solves {
		merged.Solves = other.Solves
	}

	if other.Downloads != def.Downloads {
		merged.Downloads = other.Downloads
	}

	return merged
}

// ProxyConfig configures outbound HTTP(S) proxies.
type ProxyConfig struct {
	HTTP          *string  `toml:"http"`
	HTTPS         *string  `toml:"https"`
	NonProxyHosts []string `toml:"non-proxy-hosts"`
}

// isDefault reports whether the proxy config carries no settings at all.
func (c ProxyConfig) isDefault() bool {
	return c.HTTP == nil && c.HTTPS == nil && len(c.NonProxyHosts) == 0
}

// Merge implements spec.md §4.2's ProxyConfig rule: if the right side is
// entirely default, keep the left non_proxy_hosts; otherwise the right
// side's non_proxy_hosts wins wholesale. http/https are right-wins-if-Some.
func (c ProxyConfig) Merge(other ProxyConfig) ProxyConfig {
	merged := ProxyConfig{
		HTTP:  mergeStringPtr(c.HTTP, other.HTTP),
		HTTPS: mergeStringPtr(c.HTTPS, other.HTTPS),
	}

	if other.isDefault() {
		merged.NonProxyHosts = c.NonProxyHosts
	} else {
		merged.NonProxyHosts = other.NonProxyHosts
	}

	return merged
}

// ShellConfig configures activation-script generation.
type ShellConfig struct {
	ChangePs1               *bool `toml:"change-ps1"`
	ForceActivate           *bool `toml:"force-activate"`
	SourceCompletionScripts *bool `toml:"source-completion-scripts"`
}

// Merge is field-wise right-wins-if-Some.
func (c ShellConfig) Merge(other ShellConfig) ShellConfig {
	return ShellConfig{
		ChangePs1:               mergeBoolPtr(c.ChangePs1, other.ChangePs1),
		ForceActivate:           mergeBoolPtr(c.ForceActivate, other.ForceActivate),
		SourceCompletionScripts: mergeBoolPtr(c.SourceCompletionScripts, other.SourceCompletionScripts),
	}
}

// ExperimentalConfig toggles experimental feature flags by name.
type ExperimentalConfig struct {
	Features []string `toml:"features"`
}

// Merge unions the two feature-flag sets.
func (c ExperimentalConfig) Merge(other ExperimentalConfig) ExperimentalConfig {
	seen := make(map[string]bool, len(c.Features)+len(other.Features))
	merged := make([]string, 0, len(c.Features)+len(other.Features))

	for _, f := range append(append([]string{}, c.Features...), other.Features...) {
		if !seen[f] {
			seen[f] = true
			merged = append(merged, f)
		}
	}

	if len(merged) == 0 {
		return ExperimentalConfig{}
	}

	return ExperimentalConfig{Features: merged}
}

// BuildConfig configures source-build behavior (the build backend itself
// is an external collaborator; this carries the ambient settings a
// manifest or CLI can still declare).
type BuildConfig struct {
	NoBuildIsolation *bool `toml:"no-build-isolation"`
}

// Merge is field-wise right-wins-if-Some.
func (c BuildConfig) Merge(other BuildConfig) BuildConfig {
	return BuildConfig{NoBuildIsolation: mergeBoolPtr(c.NoBuildIsolation, other.NoBuildIsolation)}
}

// Config is one layer (or the fully merged result) of the system/user/
// workspace/CLI configuration stack described in spec.md §4.2 and §6.
type Config struct {
	DefaultChannels            []string `toml:"default-channels"`
	AuthenticationOverrideFile string   `toml:"authentication-override-file"`
	TLSNoVerify                *bool    `toml:"tls-no-verify"`
	TLSRootCerts               TLSRootCerts `toml:"tls-root-certs"`

	Mirrors map[string][]string `toml:"mirrors"`

	PinningStrategy string `toml:"pinning-strategy"`

	ChannelConfig map[string]string `toml:"channel-config"`

	RepodataConfig RepodataConfig `toml:"repodata-config"`
	PyPIConfig     PyPIConfig     `toml:"pypi-config"`
	S3Options      map[string]S3Options `toml:"s3-options"`

	// DetachedEnvironments is either "true"/"false" or a filesystem path;
	// modeled as a string to keep TOML decoding uniform across the bool|path
	// union (see internal/config/load.go's pre-processing pass).
	DetachedEnvironments string `toml:"detached-environments"`

	Shell        ShellConfig        `toml:"shell"`
	Experimental ExperimentalConfig `toml:"experimental"`
	Concurrency  ConcurrencyConfig  `toml:"concurrency"`

	RunPostLinkScripts RunPostLinkScripts `toml:"run-post-link-scripts"`
	ProxyConfig        ProxyConfig        `toml:"proxy-config"`
	Build              BuildConfig        `toml:"build"`

	ToolPlatform string `toml:"tool-platform"`

	// LoadedFrom records the source file paths this config was built from,
	// in layering order, for diagnostics. Not itself merged field-wise;
	// Merge concatenates it.
	LoadedFrom []string `toml:"-"`

	// Home and CacheDir are resolved once at process start from PIXI_HOME /
	// PIXI_CACHE_DIR (spec.md §9 "Global mutable state"); never present in a
	// TOML layer.
	Home     string `toml:"-"`
	CacheDir string `toml:"-"`
}

func mergeBoolPtr(left, right *bool) *bool {
	if right != nil {
		return right
	}

	return left
}

func mergeStringPtr(left, right *string) *string {
	if right != nil {
		return right
	}

	return left
}

func mergeKeyringPtr(left, right *KeyringProvider) *KeyringProvider {
	if right != nil {
		return right
	}

	return left
}
