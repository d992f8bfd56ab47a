package mcp

import (
	"os"
	"testing"

	"github.com/apexion-ai/mcpcli/internal/config"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_TOKEN", "abc123")
	cases := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"${TEST_TOKEN}", "abc123"},
		{"$TEST_TOKEN", "abc123"},
		{"Bearer ${TEST_TOKEN}", "Bearer abc123"},
		{"${MISSING_VAR}", ""},
	}
	for _, tc := range cases {
		got := expandEnvVars(tc.in)
		if got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveServerConfig_DefaultsToSelfServe(t *testing.T) {
	srv, err := ResolveServerConfig(config.ServerConfig{}, "/etc/mcpcli.yaml")
	if err != nil {
		t.Fatal(err)
	}
	self, _ := os.Executable()
	if srv.Command != self {
		t.Errorf("Command = %q, want %q", srv.Command, self)
	}
	want := []string{"serve", "--config", "/etc/mcpcli.yaml"}
	if len(srv.Args) != len(want) {
		t.Fatalf("Args = %v, want %v", srv.Args, want)
	}
	for i := range want {
		if srv.Args[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, srv.Args[i], want[i])
		}
	}
}

func TestResolveServerConfig_KeepsExplicitCommand(t *testing.T) {
	srv, err := ResolveServerConfig(config.ServerConfig{Command: "my-server", Args: []string{"--x"}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if srv.Command != "my-server" || len(srv.Args) != 1 {
		t.Errorf("got %+v", srv)
	}
}

func TestResolveServerConfig_EnvExpansion(t *testing.T) {
	t.Setenv("MY_TOKEN", "secret")

	srv, err := ResolveServerConfig(config.ServerConfig{
		Type: config.ServerTypeHTTP,
		URL:  "http://localhost:8080",
		Headers: map[string]string{
			"Authorization": "Bearer ${MY_TOKEN}",
		},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := srv.Headers["Authorization"]; got != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer secret")
	}
}

func TestBuildTransport_Validation(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.ServerConfig
		wantErr bool
	}{
		{"stdio ok", config.ServerConfig{Command: "echo"}, false},
		{"stdio missing command", config.ServerConfig{Type: config.ServerTypeStdio}, true},
		{"http ok", config.ServerConfig{URL: "http://localhost"}, false},
		{"sse missing url", config.ServerConfig{Type: config.ServerTypeSSE}, true},
		{"unknown", config.ServerConfig{Type: "carrier-pigeon"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildTransport(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("buildTransport err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
