package server

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/whatcher1074/helloworld/internal/app"
	"golang.org/x/net/http2"
)

// syncBuffer guards a bytes.Buffer shared with the serving goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var greet = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "Hello World!")
})

type served struct {
	port string
	logs *syncBuffer
	stop func() error
}

func startServer(t *testing.T) served {
	t.Helper()
	return startServing(t, func(zerolog.Logger) http.Handler { return greet })
}

func startServing(t *testing.T, handler func(zerolog.Logger) http.Handler) served {
	t.Helper()

	lis, err := Listen("0")
	if err != nil {
		t.Fatalf("Listen returned an error: %v", err)
	}

	logs := &syncBuffer{}
	log := zerolog.New(logs)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, lis, handler(log), log) }()

	var once sync.Once
	var stopErr error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case stopErr = <-done:
			case <-time.After(10 * time.Second):
				stopErr = fmt.Errorf("server did not stop")
			}
		})
		return stopErr
	}
	t.Cleanup(func() { _ = stop() })

	return served{port: strconv.Itoa(lis.Addr().(*net.TCPAddr).Port), logs: logs, stop: stop}
}

func TestServeHTTP1(t *testing.T) {
	s := startServer(t)

	resp, err := http.Get("http://localhost:" + s.port + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != "Hello World!" {
		t.Errorf("Expected 200 %q, got %d %q", "Hello World!", resp.StatusCode, body)
	}

	want := "App running on http://localhost:" + s.port
	if !strings.Contains(s.logs.String(), want) {
		t.Errorf("Expected startup log %q, got %q", want, s.logs.String())
	}
}

func TestServeCleartextHTTP2(t *testing.T) {
	s := startServer(t)

	client := &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}

	resp, err := client.Get("http://localhost:" + s.port + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.ProtoMajor != 2 {
		t.Errorf("Expected HTTP/2, got %s", resp.Proto)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Hello World!" {
		t.Errorf("Expected %q, got %q", "Hello World!", body)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := startServer(t)

	if err := s.stop(); err != nil {
		t.Fatalf("Serve returned an error: %v", err)
	}
	if !strings.Contains(s.logs.String(), "Server gracefully stopped") {
		t.Errorf("Expected shutdown log, got %q", s.logs.String())
	}

	if _, err := net.DialTimeout("tcp", "localhost:"+s.port, time.Second); err == nil {
		t.Error("Expected the listener to be closed")
	}
}

func TestListenPortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to bind: %v", err)
	}
	defer busy.Close()

	port := strconv.Itoa(busy.Addr().(*net.TCPAddr).Port)
	if lis, err := Listen(port); err == nil {
		lis.Close()
		t.Fatalf("Expected Listen(%s) to fail while the port is taken", port)
	}
}

func TestRunInvalidPort(t *testing.T) {
	err := Run(context.Background(), "not-a-port", greet, zerolog.Nop())
	if err == nil {
		t.Fatal("Expected Run to fail on an invalid port")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, "0", greet, zerolog.Nop()); err != nil {
		t.Errorf("Run returned an error: %v", err)
	}
}

func TestServeApplication(t *testing.T) {
	s := startServing(t, app.New)

	resp, err := http.Get("http://localhost:" + s.port + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != app.Greeting {
		t.Errorf("Expected 200 %q, got %d %q", app.Greeting, resp.StatusCode, body)
	}
	if resp.ContentLength != int64(len(app.Greeting)) {
		t.Errorf("Expected Content-Length %d, got %d", len(app.Greeting), resp.ContentLength)
	}

	if err := s.stop(); err != nil {
		t.Fatalf("Serve returned an error: %v", err)
	}

	logs := s.logs.String()
	if want := "App running on http://localhost:" + s.port; !strings.Contains(logs, want) {
		t.Errorf("Expected startup log %q, got %q", want, logs)
	}
	if !strings.Contains(logs, `"status":200`) {
		t.Errorf("Expected an access log entry, got %q", logs)
	}
}
