package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dpapathanasiou/coatcheck/pkg/errors"
)

func withOutputFiles(t *testing.T) (stdout, stderr *os.File, readStdout, readStderr func() string) {
	t.Helper()

	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	t.Cleanup(func() {
		outW.Close()
		errW.Close()
	})

	drain := func(r *os.File) func() string {
		return func() string {
			var buf bytes.Buffer
			buf.ReadFrom(r)
			return buf.String()
		}
	}

	return outW, errW, drain(outR), drain(errR)
}

func TestRunMissingFilePath(t *testing.T) {
	t.Setenv("COAT_CHECK_FILE_PATH", "")

	stdout, stderr, _, readStderr := withOutputFiles(t)
	code := run([]string{"coatcheck", "get", "foo"}, stdout, stderr)
	stderr.Close()

	if code != 1 {
		t.Fatalf("run() code = %d, want 1", code)
	}
	want := errors.NewRequiredFieldError("COAT_CHECK_FILE_PATH").Error()
	if got := readStderr(); !bytes.Contains([]byte(got), []byte(want)) {
		t.Fatalf("stderr = %q, want it to contain %q", got, want)
	}
}

func TestRunInvalidPortEnv(t *testing.T) {
	t.Setenv("COAT_CHECK_FILE_PATH", filepath.Join(t.TempDir(), "coatcheck.db"))
	t.Setenv("COAT_CHECK_PORT", "not-a-port")

	stdout, stderr, _, readStderr := withOutputFiles(t)
	code := run([]string{"coatcheck", "get", "foo"}, stdout, stderr)
	stderr.Close()

	if code != 1 {
		t.Fatalf("run() code = %d, want 1", code)
	}
	if got := readStderr(); got == "" {
		t.Fatalf("stderr = %q, want a format validation message", got)
	}
}

func TestRunGetMissingKeyArgument(t *testing.T) {
	t.Setenv("COAT_CHECK_FILE_PATH", filepath.Join(t.TempDir(), "coatcheck.db"))
	t.Setenv("COAT_CHECK_PORT", "")

	stdout, stderr, _, readStderr := withOutputFiles(t)
	code := run([]string{"coatcheck", "get"}, stdout, stderr)
	stderr.Close()

	if code != 1 {
		t.Fatalf("run() code = %d, want 1", code)
	}
	if got := readStderr(); got == "" {
		t.Fatalf("stderr = %q, want a required-field validation message", got)
	}
}

func TestRunSetThenGetRoundTrip(t *testing.T) {
	t.Setenv("COAT_CHECK_FILE_PATH", filepath.Join(t.TempDir(), "coatcheck.db"))
	t.Setenv("COAT_CHECK_PORT", "")

	stdout, stderr, readStdout, readStderr := withOutputFiles(t)
	code := run([]string{"coatcheck", "set", "foo", "bar"}, stdout, stderr)
	stdout.Close()
	stderr.Close()

	if code != 0 {
		t.Fatalf("run(set) code = %d, stderr = %q", code, readStderr())
	}
	if got := readStdout(); got != "wrote 44 bytes\n" {
		t.Fatalf("run(set) stdout = %q", got)
	}

	stdout, stderr, readStdout, readStderr = withOutputFiles(t)
	code = run([]string{"coatcheck", "get", "foo"}, stdout, stderr)
	stdout.Close()
	stderr.Close()

	if code != 0 {
		t.Fatalf("run(get) code = %d, stderr = %q", code, readStderr())
	}
	if got := readStdout(); got != "bar\n" {
		t.Fatalf("run(get) stdout = %q", got)
	}
}

func TestIsValidPort(t *testing.T) {
	cases := map[string]bool{
		"5000": true,
		"0":    true,
		"":     false,
		"abc":  false,
		"50a0": false,
	}
	for in, want := range cases {
		if got := isValidPort(in); got != want {
			t.Errorf("isValidPort(%q) = %v, want %v", in, got, want)
		}
	}
}

