// Package mcp connects the command-line client and the tool server over the
// Model Context Protocol. The server side exposes the tools registry; the
// client side is the Invoker that every command calls through.
package mcp

import (
	"fmt"
	"os"

	"github.com/apexion-ai/mcpcli/internal/config"
)

// ResolveServerConfig fills in the self-hosted default and expands ${VAR}
// and $VAR references in every string value.
//
// With no command and no URL, the client starts its own binary with
// "serve", passing configPath along so both sides read the same settings.
func ResolveServerConfig(srv config.ServerConfig, configPath string) (config.ServerConfig, error) {
	srv = expandServerConfig(srv)
	if srv.EffectiveType() != config.ServerTypeStdio || srv.Command != "" {
		return srv, nil
	}

	self, err := os.Executable()
	if err != nil {
		return srv, fmt.Errorf("locate own executable: %w", err)
	}
	srv.Command = self
	if len(srv.Args) == 0 {
		srv.Args = []string{"serve"}
		if configPath != "" {
			srv.Args = append(srv.Args, "--config", configPath)
		}
	}
	return srv, nil
}

// expandServerConfig expands environment variable references in all ServerConfig fields.
func expandServerConfig(srv config.ServerConfig) config.ServerConfig {
	srv.Command = expandEnvVars(srv.Command)
	srv.URL = expandEnvVars(srv.URL)

	if len(srv.Args) > 0 {
		expanded := make([]string, len(srv.Args))
		for i, a := range srv.Args {
			expanded[i] = expandEnvVars(a)
		}
		srv.Args = expanded
	}

	if len(srv.Env) > 0 {
		envExp := make(map[string]string, len(srv.Env))
		for k, v := range srv.Env {
			envExp[k] = expandEnvVars(v)
		}
		srv.Env = envExp
	}

	if len(srv.Headers) > 0 {
		hdrs := make(map[string]string, len(srv.Headers))
		for k, v := range srv.Headers {
			hdrs[k] = expandEnvVars(v)
		}
		srv.Headers = hdrs
	}

	return srv
}

// expandEnvVars replaces ${VAR} and $VAR in a string with current environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}
