package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wtlin1228/codecrafters-http-server-go/filesystem"
	"github.com/wtlin1228/codecrafters-http-server-go/test"
)

func startServer(t *testing.T, workers int, directory string) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create test listener: %v", err)
	}

	pool, err := NewWorkerPool(workers, workers, nil)
	if err != nil {
		t.Fatal(err)
	}

	srv := NewServer("test", NewDispatcher(filesystem.NewLocalFileSystem()).Handler(), pool, nil)
	srv.Directory = directory

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx, listener)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-serveErr:
			if !errors.Is(err, ErrServerClosed) {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("Serve did not stop")
		}
		pool.Close()
	})

	return listener.Addr().String()
}

// send writes raw on a fresh connection and returns everything the server
// wrote before closing it.
func send(addr, raw string) ([]byte, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, raw); err != nil {
		return nil, err
	}

	// A reset after an abandoned request is as good as a close here.
	data, _ := io.ReadAll(conn)
	return data, nil
}

func roundTrip(t *testing.T, addr, raw string) []byte {
	t.Helper()

	data, err := send(addr, raw)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	return data
}

func parseResponse(t *testing.T, data []byte) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.ReadResponse(bufio.NewReader(strings.NewReader(string(data))), nil)
	if err != nil {
		t.Fatalf("invalid response %q: %v", data, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body of %q: %v", data, err)
	}
	return resp, body
}

func TestServer_Routes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	addr := startServer(t, 2, dir)

	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "root",
			raw:  "GET / HTTP/1.1\r\nHost: localhost:4221\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\n\r\n",
		},
		{
			name: "echo",
			raw:  "GET /echo/abc123 HTTP/1.1\r\nHost: localhost:4221\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 6\r\n\r\nabc123",
		},
		{
			name: "user agent",
			raw:  "GET /user-agent HTTP/1.1\r\nHost: localhost:4221\r\nUser-Agent: test-client/1.0\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 15\r\n\r\ntest-client/1.0",
		},
		{
			name: "file",
			raw:  "GET /files/foo.txt HTTP/1.1\r\nHost: localhost:4221\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\nContent-Type: application/octet-stream\r\nContent-Length: 5\r\n\r\nhello",
		},
		{
			name: "missing file",
			raw:  "GET /files/missing.txt HTTP/1.1\r\nHost: localhost:4221\r\n\r\n",
			want: "HTTP/1.1 404 Not Found\r\n\r\n",
		},
		{
			name: "unmatched",
			raw:  "GET /anything-unmatched HTTP/1.1\r\nHost: localhost:4221\r\n\r\n",
			want: "HTTP/1.1 404 Not Found\r\n\r\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			test.AssertEqual(t, tc.want, string(roundTrip(t, addr, tc.raw)))
		})
	}
}

func TestServer_ResponseFraming(t *testing.T) {
	addr := startServer(t, 1, "")

	resp, body := parseResponse(t, roundTrip(t, addr, "GET /echo/abc123 HTTP/1.1\r\nHost: x\r\n\r\n"))
	test.AssertEqual(t, http.StatusOK, resp.StatusCode)
	test.AssertEqual(t, "text/plain", resp.Header.Get("Content-Type"))
	test.AssertEqual(t, int64(6), resp.ContentLength)
	test.AssertEqual(t, "abc123", string(body))
}

func TestServer_UploadFile(t *testing.T) {
	dir := t.TempDir()
	addr := startServer(t, 1, dir)

	payload := "12345\r\n67890"
	raw := fmt.Sprintf("POST /files/upload.txt HTTP/1.1\r\nHost: x\r\nContent-Length: %d\r\n\r\n%s", len(payload), payload)
	test.AssertEqual(t, "HTTP/1.1 201 Created\r\n\r\n", string(roundTrip(t, addr, raw)))

	content, err := os.ReadFile(filepath.Join(dir, "upload.txt"))
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, payload, string(content))

	resp, body := parseResponse(t, roundTrip(t, addr, "GET /files/upload.txt HTTP/1.1\r\nHost: x\r\n\r\n"))
	test.AssertEqual(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	test.AssertEqual(t, payload, string(body))
}

func TestServer_MoreClientsThanWorkers(t *testing.T) {
	const clients = 32
	addr := startServer(t, 2, "")

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()

			text := fmt.Sprintf("client-%d", i)
			data, err := send(addr, "GET /echo/"+text+" HTTP/1.1\r\nHost: x\r\n\r\n")
			if err != nil {
				t.Errorf("client %d: %v", i, err)
				return
			}
			want := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: %d\r\n\r\n%s", len(text), text)
			if string(data) != want {
				t.Errorf("client %d: got %q, want %q", i, data, want)
			}
		}()
	}
	wg.Wait()
}

func TestServer_FailedConnectionDoesNotStopWorker(t *testing.T) {
	// One worker serves the bad connections and then the good one.
	addr := startServer(t, 1, "")

	bad := []string{
		"GARBAGE\r\n\r\n",
		"POST /files/x HTTP/1.1\r\nContent-Length: nope\r\n\r\n",
		"GET /files/x HTTP/1.1\r\nHost: x\r\n\r\n", // no served directory
	}
	for _, raw := range bad {
		if data := roundTrip(t, addr, raw); len(data) != 0 {
			t.Errorf("expected the connection to be abandoned for %q, got %q", raw, data)
		}
	}

	test.AssertEqual(t, "HTTP/1.1 200 OK\r\n\r\n", string(roundTrip(t, addr, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")))
}

func TestServer_TruncatedBody(t *testing.T) {
	addr := startServer(t, 1, t.TempDir())

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(conn, "POST /files/x HTTP/1.1\r\nContent-Length: 10\r\n\r\nhello"); err != nil {
		t.Fatal(err)
	}
	// Half-close so the server sees EOF before the declared length.
	if err := conn.(*net.TCPConn).CloseWrite(); err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(conn)
	conn.Close()

	if len(data) != 0 {
		t.Errorf("truncated request must not be answered, got %q", data)
	}

	test.AssertEqual(t, "HTTP/1.1 200 OK\r\n\r\n", string(roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n")))
}

func TestServer_CloseStopsServe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	pool, err := NewWorkerPool(1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	srv := NewServer("test", NotFoundHandler, pool, nil)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(context.Background(), listener)
	}()

	roundTrip(t, listener.Addr().String(), "GET / HTTP/1.1\r\n\r\n")
	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-serveErr:
		test.AssertErrorIs(t, err, ErrServerClosed)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestServeConn(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv := NewServer("pipe", NewDispatcher(filesystem.NewLocalFileSystem()).Handler(), nil, nil)

	served := make(chan error, 1)
	go func() {
		served <- srv.ServeConn(context.Background(), serverConn)
	}()

	if _, err := io.WriteString(clientConn, "GET /user-agent HTTP/1.1\r\nUser-Agent: pipe/1.0\r\n\r\n"); err != nil {
		t.Fatal(err)
	}
	resp, err := http.ReadResponse(bufio.NewReader(clientConn), nil)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, "pipe/1.0", string(body))

	if err := <-served; err != nil {
		t.Errorf("ServeConn failed: %v", err)
	}
}

func TestServeConn_ClientClosedEarly(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	clientConn.Close()

	srv := NewServer("pipe", NotFoundHandler, nil, nil)
	if err := srv.ServeConn(context.Background(), serverConn); err != nil {
		t.Errorf("a peer that sent nothing is not an error, got %v", err)
	}
}

func BenchmarkServeConn(b *testing.B) {
	srv := NewServer("bench", NewDispatcher(filesystem.NewLocalFileSystem()).Handler(), nil, nil)
	reqStr := "GET /echo/bench HTTP/1.1\r\nHost: localhost\r\n\r\n"

	for b.Loop() {
		serverConn, clientConn := net.Pipe()
		go srv.ServeConn(context.Background(), serverConn)

		if _, err := io.WriteString(clientConn, reqStr); err != nil {
			b.Fatalf("write error: %v", err)
		}
		resp, err := http.ReadResponse(bufio.NewReader(clientConn), nil)
		if err != nil {
			b.Fatalf("read error: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		clientConn.Close()
	}
}
