package rpc

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"kvvault/internal/codec"
)

// acceptTimeout bounds how long Accept blocks so the accept loop can
// observe a shutdown request without a dedicated cancellation channel on
// the listener itself, per spec §4.6.
const acceptTimeout = 5 * time.Second

// Server is the RPC accept loop plus bounded worker pool described in
// spec §4.6. Per-connection handling is strictly serialized (one frame in
// flight at a time per connection); concurrency comes entirely from
// multiple connections sharing the worker pool.
type Server struct {
	Registry *Registry
	PoolSize int

	listener net.Listener
	sem      chan struct{}
	wg       sync.WaitGroup
	closing  chan struct{}
	once     sync.Once
}

// NewServer returns a Server with its worker pool sized to poolSize.
func NewServer(registry *Registry, poolSize int) *Server {
	return &Server{
		Registry: registry,
		PoolSize: poolSize,
		sem:      make(chan struct{}, poolSize),
		closing:  make(chan struct{}),
	}
}

// Serve binds host:port with SO_REUSEADDR and runs the accept loop until
// Shutdown is called. It returns nil after a clean shutdown, or the bind
// error if listening failed.
func (s *Server) Serve(host string, port int) error {
	lc := net.ListenConfig{Control: setReuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	s.listener = ln
	log.Printf("rpc: listening on %s", ln.Addr())

	for {
		select {
		case <-s.closing:
			s.wg.Wait()
			return nil
		default:
		}

		if tl, ok := ln.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(acceptTimeout))
		}

		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			select {
			case <-s.closing:
				s.wg.Wait()
				return nil
			default:
				log.Printf("rpc: accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		s.sem <- struct{}{}
		go func() {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.handleConn(conn)
		}()
	}
}

// Shutdown stops the accept loop and closes the listener. It returns
// without waiting for in-flight connection handlers; Serve waits for them
// before it returns.
func (s *Server) Shutdown() {
	s.once.Do(func() {
		close(s.closing)
		if s.listener != nil {
			s.listener.Close()
		}
	})
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		payload, err := codec.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("rpc: frame read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		req, err := codec.DecodeRequest(payload)
		if err != nil {
			log.Printf("rpc: decode error from %s: %v", conn.RemoteAddr(), err)
			return
		}

		resp, suppress := s.dispatch(req)
		if suppress {
			// Unknown service/method: close with no response frame sent at
			// all, not even an empty one.
			return
		}

		data, err := codec.EncodeResponse(resp)
		if err != nil {
			log.Printf("rpc: encode error for %s.%s: %v", req.ServiceURI, req.Method, err)
			return
		}
		if err := codec.WriteFrame(conn, data); err != nil {
			log.Printf("rpc: frame write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// dispatch resolves and calls one method. An unknown service or unknown
// method logs and terminates the connection with no response frame sent —
// spec §4.6's observed behavior, kept deliberately per §9 Open Question 2
// rather than introduced as a structured error frame, since a normal
// method error (readonly violation, missing key, ...) already has one: the
// Method's own (nil, err) return becomes a Response{Error: ...}.
func (s *Server) dispatch(req codec.Request) (codec.Response, bool) {
	svc, ok := s.Registry.Get(req.ServiceURI)
	if !ok {
		log.Printf("rpc: unknown service %q", req.ServiceURI)
		return codec.Response{}, true
	}

	method, ok := svc.Methods()[req.Method]
	if !ok {
		log.Printf("rpc: unknown method %q on service %q", req.Method, req.ServiceURI)
		return codec.Response{}, true
	}

	result, err := method(req.Args, req.Kwargs)
	if err != nil {
		return codec.Response{Error: err.Error()}, false
	}
	return codec.Response{Result: result}, false
}
