package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/justenwalker/realmfetch/auth"
	"github.com/justenwalker/realmfetch/pac"
	"github.com/justenwalker/realmfetch/proxy"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read into Settings
const EnvPrefix = "REALMFETCH"

// DefaultService is the keyring service credentials are stored under
const DefaultService = "realmfetch"

// Settings are the user facing options of realmfetch
type Settings struct {
	// PAC is the location of a proxy auto-config script
	PAC string `mapstructure:"pac"`
	// Proxy is an explicit proxy URL, used when PAC is empty
	Proxy string `mapstructure:"proxy"`
	// NoProxy lists hosts which are always reached directly
	NoProxy []string `mapstructure:"no-proxy"`
	// Service is the keyring service name
	Service string `mapstructure:"service"`
	// KeyByHost caches credentials per realm and host instead of per realm
	KeyByHost bool `mapstructure:"key-by-host"`
	// NoPrompt disables the interactive prompt
	NoPrompt bool `mapstructure:"no-prompt"`
	Verbose  bool `mapstructure:"verbose"`
	JSONLog  bool `mapstructure:"json-log"`
}

var keys = []string{"pac", "proxy", "no-proxy", "service", "key-by-host", "no-prompt", "verbose", "json-log"}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("service", DefaultService)
}

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads settings from v, which may be bound to flags, a config file and the environment
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config '%s': %w", configFile, err)
		}
	}
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, err
	}
	// comma separated lists from the environment arrive as a single element
	var hosts []string
	for _, h := range s.NoProxy {
		hosts = append(hosts, strings.Split(h, ",")...)
	}
	s.NoProxy = hosts
	return s, nil
}

// Resolver builds the proxy resolver: the PAC script when set, then an explicit proxy, then the environment
func (s *Settings) Resolver(ctx context.Context) (*DynamicConfig, error) {
	var r proxy.Resolver
	switch {
	case s.PAC != "":
		p := pac.New(s.PAC)
		if _, err := p.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("load PAC '%s': %w", s.PAC, err)
		}
		r = p
	case s.Proxy != "":
		u, err := url.Parse(s.Proxy)
		if err != nil {
			return nil, fmt.Errorf("proxy url '%s': %w", s.Proxy, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("proxy url '%s' has no host", s.Proxy)
		}
		r = proxy.Static(u)
	default:
		r = proxy.Environment()
	}
	cfg := New(r)
	cfg.SetBypass(s.NoProxy)
	return cfg, nil
}

// KeyFunc returns the realm cache keying policy
func (s *Settings) KeyFunc() auth.KeyFunc {
	if s.KeyByHost {
		return auth.RealmAndHost
	}
	return auth.RealmOnly
}
