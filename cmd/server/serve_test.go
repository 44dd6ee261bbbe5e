package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-inventory/internal/config"
)

// fakeRedis answers just enough RESP for a client to connect and PING.
// Every closed client connection is reported on closed.
type fakeRedis struct {
	lis    net.Listener
	closed chan struct{}
}

func newFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeRedis{lis: lis, closed: make(chan struct{}, 16)}
	go f.accept()
	t.Cleanup(func() { lis.Close() })
	return f
}

func (f *fakeRedis) accept() {
	for {
		conn, err := f.lis.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		f.closed <- struct{}{}
	}()

	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		var reply string
		switch strings.ToUpper(args[0]) {
		case "HELLO":
			reply = "-ERR unknown command 'HELLO'\r\n"
		case "PING":
			reply = "+PONG\r\n"
		default:
			reply = "+OK\r\n"
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "*")))
	if err != nil || n < 1 {
		return nil, io.ErrUnexpectedEOF
	}

	args := make([]string, 0, n)
	for range n {
		size, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		length, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(size, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, length+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:length]))
	}
	return args, nil
}

func TestServe_GRPCListenFailureClosesRedis(t *testing.T) {
	redisServer := newFakeRedis(t)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := config.Default()
	cfg.DBFile = filepath.Join(t.TempDir(), "serve.db")
	cfg.RedisAddr = redisServer.lis.Addr().String()
	cfg.GRPCAddr = busy.Addr().String()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err = serve(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen grpc")

	select {
	case <-redisServer.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("redis connection left open after serve returned")
	}
}
