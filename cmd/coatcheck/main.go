// Command coatcheck is the CLI entry point for the coat-check key/value
// store: it runs the TCP server, triggers an offline compaction, or
// performs a single get/set/del against the backing file.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/dpapathanasiou/coatcheck/internal/compaction"
	"github.com/dpapathanasiou/coatcheck/internal/server"
	"github.com/dpapathanasiou/coatcheck/internal/sigctl"
	"github.com/dpapathanasiou/coatcheck/pkg/coatcheck"
	"github.com/dpapathanasiou/coatcheck/pkg/errors"
	"github.com/dpapathanasiou/coatcheck/pkg/logger"
	"github.com/dpapathanasiou/coatcheck/pkg/options"
)

const usage = `usage: coatcheck <command> [arguments]

commands:
  server [--port PORT]   run the TCP front end against the configured file
  compact                 run compaction synchronously and exit
  get KEY                 read and print the value for KEY
  set KEY VALUE           upsert KEY to VALUE
  del KEY                 delete KEY and print the value removed

environment:
  COAT_CHECK_FILE_PATH   path to the backing record file (required)
  COAT_CHECK_PORT        TCP port for 'server' (default 5000)
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if len(args) < 2 {
		fmt.Fprint(stderr, usage)
		return 0
	}

	command := args[1]
	rest := args[2:]

	switch command {
	case "server", "compact", "get", "set", "del":
	default:
		fmt.Fprint(stderr, usage)
		return 0
	}

	filePath := os.Getenv("COAT_CHECK_FILE_PATH")
	if filePath == "" {
		fmt.Fprintln(stderr, "error:", errors.NewRequiredFieldError("COAT_CHECK_FILE_PATH"))
		return 1
	}

	opts := []options.OptionFunc{options.WithFilePath(filePath)}
	if port := os.Getenv("COAT_CHECK_PORT"); port != "" {
		if !isValidPort(port) {
			fmt.Fprintln(stderr, "error:", errors.NewFieldFormatError("COAT_CHECK_PORT", port, "numeric TCP port"))
			return 1
		}
		opts = append(opts, options.WithPort(port))
	}

	flagSet := flag.NewFlagSet(command, flag.ContinueOnError)
	flagSet.SetOutput(stderr)

	var portFlag string
	if command == "server" {
		flagSet.StringVar(&portFlag, "port", "", "TCP port to listen on, overriding COAT_CHECK_PORT")
	}

	if err := flagSet.Parse(rest); err != nil {
		return 1
	}
	if portFlag != "" {
		if !isValidPort(portFlag) {
			fmt.Fprintln(stderr, "error:", errors.NewFieldFormatError("--port", portFlag, "numeric TCP port"))
			return 1
		}
		opts = append(opts, options.WithPort(portFlag))
	}
	positional := flagSet.Args()

	instance, err := coatcheck.NewInstance(command, opts...)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer instance.Close()

	switch command {
	case "server":
		return runServer(instance, stderr)
	case "compact":
		return runCompact(instance, stderr)
	case "get":
		return runGet(instance, positional, stdout, stderr)
	case "set":
		return runSet(instance, positional, stdout, stderr)
	case "del":
		return runDel(instance, positional, stdout, stderr)
	}

	return 1
}

func runServer(instance *coatcheck.Instance, stderr *os.File) int {
	log := logger.New("server")

	cflag := &compaction.Flag{}
	if err := sigctl.Register(cflag, log); err != nil {
		log.Errorw("failed to register compaction signal handler, continuing without it", "error", err)
	}

	if info, err := os.Stat(instance.Options.FilePath); err == nil {
		log.Infow("backing file size at startup", "path", instance.Options.FilePath, "bytes", info.Size())
	}

	srv := server.New(&server.Config{
		Options: instance.Options,
		Engine:  instance.Engine,
		Flag:    cflag,
		Logger:  log,
	})

	if err := srv.ListenAndServe(context.Background()); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func runCompact(instance *coatcheck.Instance, stderr *os.File) int {
	if err := instance.Compact(); err != nil {
		if se, ok := errors.AsStorageError(err); ok && se.Code() == errors.ErrorCodeNotFound {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// isValidPort reports whether port is a non-empty string of decimal digits,
// the format pflag.StringVar and os.Getenv both hand back untyped.
func isValidPort(port string) bool {
	if port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func runGet(instance *coatcheck.Instance, args []string, stdout, stderr *os.File) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "error:", errors.NewRequiredFieldError("KEY").WithDetail("usage", "coatcheck get KEY"))
		return 1
	}

	value, err := instance.Get(args[0])
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if value == nil {
		fmt.Fprintln(stderr, "error: no match found")
		return 1
	}

	fmt.Fprintln(stdout, string(value))
	return 0
}

func runSet(instance *coatcheck.Instance, args []string, stdout, stderr *os.File) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "error:", errors.NewRequiredFieldError("KEY VALUE").WithDetail("usage", "coatcheck set KEY VALUE"))
		return 1
	}

	n, err := instance.Set(args[0], []byte(args[1]))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	fmt.Fprintf(stdout, "wrote %d bytes\n", n)
	return 0
}

func runDel(instance *coatcheck.Instance, args []string, stdout, stderr *os.File) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "error:", errors.NewRequiredFieldError("KEY").WithDetail("usage", "coatcheck del KEY"))
		return 1
	}

	value, err := instance.Delete(args[0])
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if value == nil {
		fmt.Fprintln(stderr, "error: no match found")
		return 1
	}

	fmt.Fprintln(stdout, string(value))
	return 0
}
