// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"net"
	"strconv"
	"strings"
)

// SyslogConfig configures remote syslog forwarding.
type SyslogConfig struct {
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	Facility int // syslog facility number, 1 = user
}

// DefaultSyslogConfig returns RFC 3164 defaults with no host.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Port:     514,
		Protocol: "udp",
		Tag:      "dplink",
		Facility: 1,
	}
}

// ParseSyslogTarget builds a config from "host" or "host:port".
func ParseSyslogTarget(target string) (SyslogConfig, error) {
	cfg := DefaultSyslogConfig()
	if target == "" {
		return cfg, fmt.Errorf("syslog host is required")
	}

	host, port, err := net.SplitHostPort(target)
	if err != nil {
		// No port given; bracketed IPv6 literals lose their brackets.
		cfg.Host = strings.Trim(target, "[]")
		return cfg, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return cfg, fmt.Errorf("invalid syslog port %q", port)
	}
	cfg.Host = host
	cfg.Port = p
	return cfg, nil
}

// NewSyslogWriter dials the configured syslog server.
func NewSyslogWriter(cfg SyslogConfig) (io.WriteCloser, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "dplink"
	}

	priority := syslog.Priority(cfg.Facility<<3) | syslog.LOG_INFO
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	w, err := syslog.Dial(cfg.Protocol, addr, priority, cfg.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to syslog %s: %w", addr, err)
	}
	return w, nil
}
