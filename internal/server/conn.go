package server

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"

	"github.com/dpapathanasiou/coatcheck/pkg/errors"
)

const (
	verbGet = "get"
	verbSet = "set"
	verbDel = "del"
)

const usageBanner = "usage: get KEY | set KEY VALUE | del KEY\r\n"

const noMatchResponse = "*** no match found\r\n"

// command is one parsed get/set/del request line.
type command struct {
	verb  string
	key   string
	value []byte
}

// parseCommand tokenizes a single command line on single-space bytes.
// set's VALUE is everything after "set ", the key, and one more space —
// every subsequent byte, including runs of spaces, is preserved verbatim.
func parseCommand(line string) (command, error) {
	spIdx := strings.IndexByte(line, ' ')
	if spIdx < 0 {
		return command{}, errors.NewInvalidCommandError(line)
	}

	verb := line[:spIdx]
	rest := line[spIdx+1:]

	switch verb {
	case verbGet, verbDel:
		if rest == "" || strings.IndexByte(rest, ' ') >= 0 {
			return command{}, errors.NewInvalidCommandError(line).WithVerb(verb)
		}
		return command{verb: verb, key: rest}, nil

	case verbSet:
		keyEnd := strings.IndexByte(rest, ' ')
		if keyEnd <= 0 {
			return command{}, errors.NewInvalidCommandError(line).WithVerb(verb)
		}
		return command{
			verb:  verb,
			key:   rest[:keyEnd],
			value: []byte(rest[keyEnd+1:]),
		}, nil

	default:
		return command{}, errors.NewInvalidCommandError(line).WithVerb(verb)
	}
}

// scanCommand is a bufio.SplitFunc that frames one command per CR or LF
// byte, matching the wire protocol's "terminated by CR or LF" rule instead
// of requiring the CRLF pair bufio.ScanLines assumes.
func scanCommand(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// handleConn is the per-connection worker: it reads commands until the
// client half-closes or a write fails, dispatching each to the storage
// engine and replying with the matching wire response. A malformed command
// never aborts the connection — it produces an invalid-command response and
// the worker keeps reading.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	bufSize := s.options.ReadBufferSize
	if bufSize <= 0 {
		bufSize = 1024
	}

	scanner := bufio.NewScanner(conn)
	scanner.Split(scanCommand)
	scanner.Buffer(make([]byte, bufSize), bufSize)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		response := s.dispatch(line)
		if _, err := conn.Write(response); err != nil {
			s.log.Warnw("failed writing response to client", "error", err)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.log.Warnw("connection read error", "error", err)
	}
}

// dispatch runs one parsed command line against the storage engine and
// returns the exact CRLF-terminated wire response.
func (s *Server) dispatch(line string) []byte {
	cmd, err := parseCommand(line)
	if err != nil {
		return []byte("*** invalid command\r\n" + usageBanner)
	}

	switch cmd.verb {
	case verbGet:
		value, err := s.engine.Read(cmd.key)
		if err != nil {
			if isNotFound(err) {
				return []byte(noMatchResponse)
			}
			return errorResponse(err)
		}
		if value == nil {
			return []byte(noMatchResponse)
		}
		return withCRLF(value)

	case verbSet:
		n, err := s.engine.Upsert(cmd.key, cmd.value)
		if err != nil {
			return errorResponse(err)
		}
		return []byte(fmt.Sprintf("*** success: wrote %d bytes\r\n", n))

	case verbDel:
		value, err := s.engine.Delete(cmd.key)
		if err != nil {
			if isNotFound(err) {
				return []byte(noMatchResponse)
			}
			return errorResponse(err)
		}
		if value == nil {
			return []byte(noMatchResponse)
		}
		return withCRLF(value)

	default:
		return []byte("*** invalid command\r\n" + usageBanner)
	}
}

func withCRLF(value []byte) []byte {
	out := make([]byte, len(value)+2)
	copy(out, value)
	out[len(value)] = '\r'
	out[len(value)+1] = '\n'
	return out
}

func errorResponse(err error) []byte {
	return []byte(fmt.Sprintf("*** error: %s\r\n", err.Error()))
}

// isNotFound reports whether err is a StorageError for a backing file that
// does not exist yet, the normal state of a store nothing has been written
// to, not a failure worth reporting to a get/del caller.
func isNotFound(err error) bool {
	se, ok := errors.AsStorageError(err)
	return ok && se.Code() == errors.ErrorCodeNotFound
}
