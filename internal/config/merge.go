package config

// Merge combines c (the left/lower-priority layer) with other (the
// right/higher-priority layer) per spec.md §4.2: a stable right-wins
// discipline with named exceptions for default_channels, mirrors,
// s3_options/repodata_config, ConcurrencyConfig, ProxyConfig, and
// PyPIConfig.
func (c Config) Merge(other Config) Config {
	merged := Config{
		DefaultChannels:            mergeDefaultChannels(c.DefaultChannels, other.DefaultChannels),
		AuthenticationOverrideFile: mergeString(c.AuthenticationOverrideFile, other.AuthenticationOverrideFile),
		TLSNoVerify:                mergeBoolPtr(c.TLSNoVerify, other.TLSNoVerify),
		TLSRootCerts:               mergeTLSRootCerts(c.TLSRootCerts, other.TLSRootCerts),
		Mirrors:                    mergeMirrors(c.Mirrors, other.Mirrors),
		PinningStrategy:            mergeString(c.PinningStrategy, other.PinningStrategy),
		ChannelConfig:              mergeChannelConfig(c.ChannelConfig, other.ChannelConfig),
		RepodataConfig:             c.RepodataConfig.Merge(other.RepodataConfig),
		PyPIConfig:                 c.PyPIConfig.Merge(other.PyPIConfig),
		S3Options:                  mergeS3Options(c.S3Options, other.S3Options),
		DetachedEnvironments:       mergeString(c.DetachedEnvironments, other.DetachedEnvironments),
		Shell:                      c.Shell.Merge(other.Shell),
		Experimental:               c.Experimental.Merge(other.Experimental),
		Concurrency:                c.Concurrency.Merge(other.Concurrency),
		RunPostLinkScripts:         mergeRunPostLinkScripts(c.RunPostLinkScripts, other.RunPostLinkScripts),
		ProxyConfig:                c.ProxyConfig.Merge(other.ProxyConfig),
		Build:                      c.Build.Merge(other.Build),
		ToolPlatform:               mergeString(c.ToolPlatform, other.ToolPlatform),
		LoadedFrom:                 append(append([]string{}, c.LoadedFrom...), other.LoadedFrom...),
		Home:                       mergeString(c.Home, other.Home),
		CacheDir:                   mergeString(c.CacheDir, other.CacheDir),
	}

	return merged
}

// mergeDefaultChannels implements "right wins entirely when non-empty;
// otherwise left is kept".
func mergeDefaultChannels(left, right []string) []string {
	if len(right) > 0 {
		return right
	}

	return left
}

// mergeMirrors implements "union; right entries shadow left entries for
// the same key".
func mergeMirrors(left, right map[string][]string) map[string][]string {
	if len(left) == 0 && len(right) == 0 {
		return nil
	}

	merged := make(map[string][]string, len(left)+len(right))

	for k, v := range left {
		merged[k] = v
	}

	for k, v := range right {
		merged[k] = v
	}

	return merged
}

// mergeS3Options implements "map merge; for overlapping keys, right wins at
// the entry level" (the whole S3Options struct is replaced, unlike
// RepodataChannelConfig which merges field-wise).
func mergeS3Options(left, right map[string]S3Options) map[string]S3Options {
	if len(left) == 0 && len(right) == 0 {
		return nil
	}

	merged := make(map[string]S3Options, len(left)+len(right))

	for k, v := range left {
		merged[k] = v
	}

	for k, v := range right {
		merged[k] = v
	}

	return merged
}

func mergeChannelConfig(left, right map[string]string) map[string]string {
	if len(left) == 0 && len(right) == 0 {
		return nil
	}

	merged := make(map[string]string, len(left)+len(right))

	for k, v := range left {
		merged[k] = v
	}

	for k, v := range right {
		merged[k] = v
	}

	return merged
}

func mergeString(left, right string) string {
	if right != "" {
		return right
	}

	return left
}

func mergeTLSRootCerts(left, right TLSRootCerts) TLSRootCerts {
	if right != "" {
		return right
	}

	return left
}

func mergeRunPostLinkScripts(left, right RunPostLinkScripts) RunPostLinkScripts {
	if right != "" {
		return right
	}

	return left
}
