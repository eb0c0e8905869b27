package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/storage"
)

// runControlSocket listens on the local TCP control port. The protocol is
// one command per line: ping answers pong, clean runs a code sweep, quit
// closes the connection. Returns a func that stops the listener.
func runControlSocket(addr string, codes storage.CodeStorage) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("control socket: %w", err)
	}
	logger.Log.Info("control socket listening", "addr", addr)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				// listener closed during shutdown
				return
			}
			go serveControlConn(conn, codes)
		}
	}()

	return func() { listener.Close() }, nil
}

func serveControlConn(conn net.Conn, codes storage.CodeStorage) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "ping":
			fmt.Fprintln(conn, "pong")
		case "clean":
			if err := codes.Clean(); err != nil {
				fmt.Fprintf(conn, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(conn, "ok")
		case "quit":
			return
		case "":
		default:
			fmt.Fprintln(conn, "unknown command")
		}
	}
}
