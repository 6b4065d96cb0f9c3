// Package server implements the TCP front end: a blocking accept loop that
// polls the compaction flag between connections and spawns a goroutine per
// accepted connection to speak the get/set/del wire protocol.
//
// A goroutine per connection is this package's analogue of the "OS thread
// per accepted connection, detached" model: each worker owns its socket,
// shares nothing but the backing storage engine with its siblings, and
// exits on its own when the client disconnects.
package server

import (
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/dpapathanasiou/coatcheck/internal/compaction"
	"github.com/dpapathanasiou/coatcheck/internal/storage"
	"github.com/dpapathanasiou/coatcheck/pkg/errors"
	"github.com/dpapathanasiou/coatcheck/pkg/options"
)

// Server binds the TCP front end to a storage engine and a compaction flag.
type Server struct {
	options *options.Options
	engine  *storage.Storage
	flag    *compaction.Flag
	log     *zap.SugaredLogger
}

// Config encapsulates the parameters required to construct a Server.
type Config struct {
	Options *options.Options
	Engine  *storage.Storage
	Flag    *compaction.Flag
	Logger  *zap.SugaredLogger
}

// New constructs a Server from config.
func New(config *Config) *Server {
	return &Server{
		options: config.Options,
		engine:  config.Engine,
		flag:    config.Flag,
		log:     config.Logger,
	}
}

// ListenAndServe binds to 127.0.0.1 on the configured port and runs the
// accept loop until the listener fails or ctx is cancelled. On each
// iteration it first consumes a pending compaction flag, compacting
// synchronously before resuming accepts, per the edge-triggered polling
// discipline the compaction flag is designed around.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort("127.0.0.1", s.options.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to bind TCP listener").
			WithPath(addr).WithOperation("listen")
	}
	defer listener.Close()

	return s.serveOn(ctx, listener)
}

// serveOn runs the accept loop against an already-bound listener. Split out
// from ListenAndServe so tests can bind an ephemeral port themselves and
// drive the loop directly.
func (s *Server) serveOn(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.log.Infow("coat-check server listening", "addr", listener.Addr().String(), "file", s.engine.Path())

	for {
		if s.flag.Consume() {
			s.log.Infow("compaction flag consumed, draining to compact")
			if err := s.engine.Compact(); err != nil {
				if se, ok := errors.AsStorageError(err); !ok || se.Code() != errors.ErrorCodeNotFound {
					s.log.Errorw("compaction failed", "error", err)
				}
			} else {
				s.log.Infow("compaction complete")
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.log.Errorw("accept failed", "error", err)
			return err
		}

		go s.handleConn(conn)
	}
}
