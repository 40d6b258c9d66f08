package config

import (
	"maps"
	"net"
	"strings"
)

// SiteConfig holds per-host request settings.
type SiteConfig struct {
	// Cookie is sent with every request to the host,
	// e.g. "name=value" or "a=1; b=2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are set on every request to the host. A "User-Agent" entry
	// overrides the global user agent for this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Concurrency overrides the global concurrency for this host.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// EngineConfig declares a custom verifier engine.
type EngineConfig struct {
	// Name selects the engine with --engine.
	Name string `yaml:"name"`

	// URL is the query URL template. It may use {host}, {path} and
	// {target} (the query-escaped "host/path").
	URL string `yaml:"url"`

	// FoundMarker marks a path as found when present in the response.
	FoundMarker string `yaml:"found_marker,omitempty"`

	// MissingMarker marks a path as not found when present in the response.
	MissingMarker string `yaml:"missing_marker,omitempty"`
}

// File is the structure of the .domo configuration file.
type File struct {
	// UserAgent replaces the default user agent unless --user-agent is given.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Defaults apply to every host.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Engines are custom verifier engines.
	Engines []EngineConfig `yaml:"engines,omitempty"`
}

// GetSiteConfig merges the site entry for host over the defaults. The
// lookup ignores case and falls back to the host without its port.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Concurrency != 0 {
		result.Concurrency = site.Concurrency
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	candidates := []string{host}
	if name, _, err := net.SplitHostPort(host); err == nil {
		candidates = append(candidates, name)
	}
	for _, c := range candidates {
		for key, site := range cf.Sites {
			if strings.ToLower(key) == c {
				return site, true
			}
		}
	}
	return SiteConfig{}, false
}
