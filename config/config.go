// Package config loads the startup configuration document (§6.3): the
// list of servers to connect to, global defaults, the renderer's color
// block, and the log directory. Path resolution follows the teacher's own
// "explicit flag, then a well-known directory" pattern, grounded on
// sandia-minimega/phenix's document-based config loaders.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sigpipe-irc/tirc/client"
	"github.com/sigpipe-irc/tirc/transport"
)

// Defaults holds values a server entry inherits when it leaves the
// corresponding field unset.
type Defaults struct {
	Nicks    []string `yaml:"nicks"`
	Username string   `yaml:"username"`
	Realname string   `yaml:"realname"`
	Port     int      `yaml:"port"`
	TLS      bool     `yaml:"tls"`
}

// ProxyEntry configures an optional outbound SOCKS proxy for one server.
type ProxyEntry struct {
	Kind     string `yaml:"kind"`
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ServerEntry is one `servers[]` document entry.
type ServerEntry struct {
	Addr          string     `yaml:"addr"`
	Port          int        `yaml:"port"`
	TLS           bool       `yaml:"tls"`
	Hostname      string     `yaml:"hostname"`
	Realname      string     `yaml:"realname"`
	Nicks         []string   `yaml:"nicks"`
	NickservIdent string     `yaml:"nickserv_ident"`
	Join          []string   `yaml:"join"`
	Proxy         ProxyEntry `yaml:"proxy"`
}

// Colors is the renderer's color block; the core treats it opaquely and
// just carries it through to the UI layer.
type Colors struct {
	Self    string `yaml:"self"`
	Other   string `yaml:"other"`
	Mention string `yaml:"mention"`
	Error   string `yaml:"error"`
	Notice  string `yaml:"notice"`
}

// Document is the full configuration document.
type Document struct {
	Servers  []ServerEntry `yaml:"servers"`
	Defaults Defaults      `yaml:"defaults"`
	Colors   Colors        `yaml:"colors"`
	LogDir   string        `yaml:"log_dir"`
}

// ParseError wraps a configuration load or parse failure (§7 ConfigParse:
// fatal at startup).
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("config: %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ResolvePath implements §6.3's path resolution order: an explicit path
// wins outright; otherwise tirc/config.yml under the platform config
// directory.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", &ParseError{Path: "(platform config dir)", Err: err}
	}
	return filepath.Join(dir, "tirc", "config.yml"), nil
}

// Load resolves and parses the document at path, or the platform default
// location if path is empty.
func Load(path string) (*Document, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, &ParseError{Path: resolved, Err: err}
	}
	defer f.Close()

	var root yaml.Node
	if err := yaml.NewDecoder(f).Decode(&root); err != nil {
		return nil, &ParseError{Path: resolved, Err: err}
	}
	var doc Document
	if err := root.Decode(&doc); err != nil {
		return nil, &ParseError{Path: resolved, Err: err}
	}
	// A bool cannot tell an omitted tls from "tls: false"; decoding it again
	// as a pointer lets an explicit value win over the default.
	var explicit struct {
		Servers []struct {
			TLS *bool `yaml:"tls"`
		} `yaml:"servers"`
	}
	_ = root.Decode(&explicit)
	if err := doc.applyDefaults(); err != nil {
		return nil, &ParseError{Path: resolved, Err: err}
	}
	for i, s := range explicit.Servers {
		if s.TLS != nil && i < len(doc.Servers) {
			doc.Servers[i].TLS = *s.TLS
		}
	}
	return &doc, nil
}

func (d *Document) applyDefaults() error {
	for i := range d.Servers {
		s := &d.Servers[i]
		if s.Addr == "" {
			return fmt.Errorf("servers[%d]: missing addr", i)
		}
		if len(s.Nicks) == 0 {
			s.Nicks = d.Defaults.Nicks
		}
		if len(s.Nicks) == 0 {
			return fmt.Errorf("servers[%d] (%s): no nicks configured", i, s.Addr)
		}
		if s.Realname == "" {
			s.Realname = d.Defaults.Realname
		}
		if !s.TLS {
			s.TLS = d.Defaults.TLS
		}
		if s.Port == 0 {
			s.Port = d.Defaults.Port
		}
	}
	return nil
}

// ServerConfigs converts every document entry into a client.ServerConfig,
// ready to hand to client.Manager.AddServer.
func (d *Document) ServerConfigs() []client.ServerConfig {
	out := make([]client.ServerConfig, 0, len(d.Servers))
	for _, s := range d.Servers {
		addr := s.Addr
		if s.Port != 0 {
			addr = fmt.Sprintf("%s:%d", s.Addr, s.Port)
		}

		cfg := client.ServerConfig{
			ServKey:      s.Addr,
			Addr:         addr,
			TLS:          s.TLS,
			Hostname:     s.Hostname,
			Nicks:        s.Nicks,
			Username:     d.Defaults.Username,
			Realname:     s.Realname,
			AutoJoin:     s.Join,
			NickServPass: s.NickservIdent,
		}
		if cfg.Username == "" && len(cfg.Nicks) > 0 {
			cfg.Username = cfg.Nicks[0]
		}
		if s.Proxy.Kind != "" {
			cfg.Proxy = transport.Proxy{
				Kind:     s.Proxy.Kind,
				Address:  s.Proxy.Address,
				Username: s.Proxy.Username,
				Password: s.Proxy.Password,
			}
		}
		out = append(out, cfg)
	}
	return out
}

// Filter keeps only the server configs whose Addr contains one of subs
// (§6.4's positional server-filter arguments); an empty subs keeps every
// configured server.
func (d *Document) Filter(subs []string) []client.ServerConfig {
	all := d.ServerConfigs()
	if len(subs) == 0 {
		return all
	}
	out := make([]client.ServerConfig, 0, len(all))
	for _, cfg := range all {
		for _, sub := range subs {
			if strings.Contains(cfg.Addr, sub) {
				out = append(out, cfg)
				break
			}
		}
	}
	return out
}
