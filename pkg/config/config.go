/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "servestream.json"
	EnvPrefix         = "SERVESTREAM"
)

type GeoIPConfig struct {
	Database         string   `json:"database" mapstructure:"database"`
	Whitelist        []string `json:"whitelist,omitempty" mapstructure:"whitelist"`
	InternalNetworks []string `json:"internal_networks,omitempty" mapstructure:"internal_networks"`
}

type SecurityConfig struct {
	GeoIP GeoIPConfig `json:"geoip,omitempty" mapstructure:"geoip"`
}

type User struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Role     string `json:"role" mapstructure:"role"`
}

type AuthConfig struct {
	SecretKey      string `json:"secret_key" mapstructure:"secret_key"`
	ExpirationTime int    `json:"expiration_time,omitempty" mapstructure:"expiration_time"`
	Users          []User `json:"users" mapstructure:"users"`
}

// EnrichConfig controls the background metadata pass.
type EnrichConfig struct {
	IntervalMs    int   `json:"interval_ms" mapstructure:"interval_ms"`
	Burst         int   `json:"burst" mapstructure:"burst"`
	Workers       int   `json:"workers" mapstructure:"workers"`
	MaxProbeBytes int64 `json:"max_probe_bytes" mapstructure:"max_probe_bytes"`
}

type ConfigData struct {
	Port            int            `json:"port" mapstructure:"port"`
	Database        string         `json:"database" mapstructure:"database"`
	LogFile         string         `json:"log_file,omitempty" mapstructure:"log_file"`
	LogLevel        string         `json:"log_level,omitempty" mapstructure:"log_level"`
	Timeout         int            `json:"timeout,omitempty" mapstructure:"timeout"`
	UserAgent       string         `json:"user_agent,omitempty" mapstructure:"user_agent"`
	InsecureTLS     bool           `json:"insecure_tls" mapstructure:"insecure_tls"`
	MaxPlaylistSize int64          `json:"max_playlist_size,omitempty" mapstructure:"max_playlist_size"`
	CacheTTL        int            `json:"cache_ttl,omitempty" mapstructure:"cache_ttl"`
	Enrich          EnrichConfig   `json:"enrich" mapstructure:"enrich"`
	Security        SecurityConfig `json:"security,omitempty" mapstructure:"security"`
	Auth            AuthConfig     `json:"auth" mapstructure:"auth"`
}

func Defaults() ConfigData {
	return ConfigData{
		Port:            8080,
		Database:        "servestream.db",
		LogFile:         "",
		LogLevel:        "info",
		Timeout:         6,
		UserAgent:       "ServeStream",
		InsecureTLS:     true,
		MaxPlaylistSize: 1 << 20,
		CacheTTL:        300,
		Enrich: EnrichConfig{
			IntervalMs:    500,
			Burst:         1,
			Workers:       2,
			MaxProbeBytes: 512 << 10,
		},
		Security: SecurityConfig{
			GeoIP: GeoIPConfig{
				Database:         "",
				Whitelist:        []string{},
				InternalNetworks: []string{},
			},
		},
		Auth: AuthConfig{
			ExpirationTime: 24,
			Users:          []User{},
		},
	}
}

type ServerConfig struct {
	path string
	data ConfigData
}

// NewServerConfig loads path, writing a default configuration first when the
// file does not exist.
func NewServerConfig(path string) (*ServerConfig, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	c := &ServerConfig{path: path, data: Defaults()}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := c.Save(); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	}

	if err := c.Load(path); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ServerConfig) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	data := Defaults()
	if err := v.Unmarshal(&data); err != nil {
		return fmt.Errorf("decoding config %s: %w", path, err)
	}

	c.path = path
	c.data = data
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("port", d.Port)
	v.SetDefault("database", d.Database)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("insecure_tls", d.InsecureTLS)
	v.SetDefault("max_playlist_size", d.MaxPlaylistSize)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("enrich.interval_ms", d.Enrich.IntervalMs)
	v.SetDefault("enrich.burst", d.Enrich.Burst)
	v.SetDefault("enrich.workers", d.Enrich.Workers)
	v.SetDefault("enrich.max_probe_bytes", d.Enrich.MaxProbeBytes)
	v.SetDefault("security.geoip.database", d.Security.GeoIP.Database)
	v.SetDefault("auth.secret_key", d.Auth.SecretKey)
	v.SetDefault("auth.expiration_time", d.Auth.ExpirationTime)
}

func (c *ServerConfig) Get() ConfigData {
	return c.data
}

func (c *ServerConfig) Set(data ConfigData) {
	c.data = data
}

func (c *ServerConfig) GetPath() string {
	return c.path
}

func (c *ServerConfig) GetTimeout() time.Duration {
	if c.data.Timeout <= 0 {
		return 6 * time.Second
	}
	return time.Duration(c.data.Timeout) * time.Second
}

func (c *ServerConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.data.CacheTTL) * time.Second
}

func (c *ServerConfig) GetEnrichInterval() time.Duration {
	return time.Duration(c.data.Enrich.IntervalMs) * time.Millisecond
}

func (c *ServerConfig) GetSecurity() SecurityConfig {
	return c.data.Security
}

func (c *ServerConfig) GetAuth() AuthConfig {
	return c.data.Auth
}

func (c *ServerConfig) SetAuth(auth AuthConfig) {
	c.data.Auth = auth
}

func (c *ServerConfig) Save() error {

	file, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c.data)
}
