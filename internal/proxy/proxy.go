// Package proxy resolves the HTTP proxy settings handed to the docker daemon.
//
// Settings come from the model environment (JUJU_CHARM_HTTP_PROXY and
// friends, then the plain HTTP_PROXY variables) and fall back to the
// operator configuration. Every value found in the environment is exposed
// under both its lowercase and uppercase key.
package proxy

import (
	"os"
	"strings"
)

// Keys of a normalized Settings.
const (
	HTTPProxy  = "http_proxy"
	HTTPSProxy = "https_proxy"
	NoProxy    = "no_proxy"
)

// DefaultPrefix is prepended to variable names before the plain names are tried.
const DefaultPrefix = "JUJU_CHARM_"

var variables = []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY"}

// Settings maps proxy variable names to values.
type Settings map[string]string

// lookup returns the value of the first key present in s.
func (s Settings) lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := s[key]; ok {
			return v, true
		}
	}
	return "", false
}

// EnvResolver reads proxy settings from environment variables.
type EnvResolver struct {
	Prefix    string
	LookupEnv func(key string) (string, bool)
}

// NewEnvResolver returns an EnvResolver over the process environment.
func NewEnvResolver() *EnvResolver {
	return &EnvResolver{Prefix: DefaultPrefix, LookupEnv: os.LookupEnv}
}

// Settings returns the non-empty proxy variables found in the environment.
// The prefixed variable wins over the plain one.
func (r *EnvResolver) Settings() (Settings, error) {
	settings := Settings{}
	for _, name := range variables {
		for _, candidate := range []string{r.Prefix + name, name, strings.ToLower(name)} {
			if value, ok := r.LookupEnv(candidate); ok && value != "" {
				settings[name] = value
				settings[strings.ToLower(name)] = value
				break
			}
		}
	}
	return settings, nil
}

// Normalize returns the http_proxy, https_proxy and no_proxy values to
// render. Values from env win over fallback. For no_proxy the uppercase
// NO_PROXY key is preferred, and the host list is cleaned by NormalizeNoProxy.
// HTTP proxy values are passed through unchanged.
func Normalize(env, fallback Settings) Settings {
	pick := func(keys ...string) string {
		if v, ok := env.lookup(keys...); ok {
			return v
		}
		v, _ := fallback.lookup(keys...)
		return v
	}

	return Settings{
		HTTPProxy:  pick(HTTPProxy, "HTTP_PROXY"),
		HTTPSProxy: pick(HTTPSProxy, "HTTPS_PROXY"),
		NoProxy:    NormalizeNoProxy(pick("NO_PROXY", NoProxy)),
	}
}

// NormalizeNoProxy strips whitespace around each comma-separated entry and
// drops empty entries. A blank list yields "".
func NormalizeNoProxy(value string) string {
	var hosts []string
	for _, host := range strings.Split(value, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return strings.Join(hosts, ",")
}
