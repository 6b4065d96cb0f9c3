package server

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dpapathanasiou/coatcheck/internal/compaction"
	"github.com/dpapathanasiou/coatcheck/internal/storage"
	"github.com/dpapathanasiou/coatcheck/pkg/options"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coatcheck.db")
	engine, err := storage.New(&storage.Config{
		Options: &options.Options{FilePath: path, ReadBufferSize: 1024},
		Logger:  zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	return New(&Config{
		Options: &options.Options{FilePath: path, ReadBufferSize: 1024},
		Engine:  engine,
		Flag:    &compaction.Flag{},
		Logger:  zap.NewNop().Sugar(),
	})
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		wantErr bool
		want    command
	}{
		{name: "get", line: "get foo", want: command{verb: "get", key: "foo"}},
		{name: "del", line: "del foo", want: command{verb: "del", key: "foo"}},
		{name: "set simple", line: "set foo bar", want: command{verb: "set", key: "foo", value: []byte("bar")}},
		{name: "set preserves spaces", line: "set foo my  value", want: command{verb: "set", key: "foo", value: []byte("my  value")}},
		{name: "no verb", line: "getfoo", wantErr: true},
		{name: "get extra token", line: "get foo bar", wantErr: true},
		{name: "set missing value", line: "set foo", wantErr: true},
		{name: "unknown verb", line: "frobnicate foo", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseCommand(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseCommand(%q) expected an error", tc.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCommand(%q) error = %v", tc.line, err)
			}
			if got.verb != tc.want.verb || got.key != tc.want.key || string(got.value) != string(tc.want.value) {
				t.Fatalf("parseCommand(%q) = %+v, want %+v", tc.line, got, tc.want)
			}
		})
	}
}

func TestDispatchSetGetDel(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch("set foo my value")
	if string(resp) != "*** success: wrote 49 bytes\r\n" {
		t.Fatalf("set response = %q, want %q", resp, "*** success: wrote 49 bytes\r\n")
	}

	resp = s.dispatch("get foo")
	if string(resp) != "my value\r\n" {
		t.Fatalf("get response = %q, want %q", resp, "my value\r\n")
	}

	resp = s.dispatch("get missing")
	if string(resp) != noMatchResponse {
		t.Fatalf("get miss response = %q, want %q", resp, noMatchResponse)
	}

	resp = s.dispatch("del foo")
	if string(resp) != "my value\r\n" {
		t.Fatalf("del response = %q, want %q", resp, "my value\r\n")
	}

	resp = s.dispatch("del foo")
	if string(resp) != noMatchResponse {
		t.Fatalf("del miss response = %q, want %q", resp, noMatchResponse)
	}
}

func TestDispatchMissingBackingFileNoMatch(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch("get foo")
	if string(resp) != noMatchResponse {
		t.Fatalf("get response against absent backing file = %q, want %q", resp, noMatchResponse)
	}

	resp = s.dispatch("del foo")
	if string(resp) != noMatchResponse {
		t.Fatalf("del response against absent backing file = %q, want %q", resp, noMatchResponse)
	}
}

func TestDispatchInvalidCommand(t *testing.T) {
	s := newTestServer(t)

	resp := s.dispatch("what is your name?")
	if string(resp) != "*** invalid command\r\n"+usageBanner {
		t.Fatalf("invalid command response = %q", resp)
	}
}
