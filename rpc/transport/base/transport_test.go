package base

import (
	"bytes"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/ValentinKolb/objlock/rpc/transport"
)

// testConnector is a unix socket connector for both sides
type testConnector struct{}

func (testConnector) GetName() string { return "unix" }

func (testConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}

func (testConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

type testServerConnector struct{ testConnector }

func (testServerConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("unix", config.Transport.Endpoint)
}

func (testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error { return nil }

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		data []byte
	}{
		{"empty payload", nil, []byte{}},
		{"no buffer", nil, []byte("hello")},
		{"small buffer", make([]byte, 24), bytes.Repeat([]byte{7}, 100)},
		{"large buffer", make([]byte, 4096), []byte("payload")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := net.Pipe()
			defer a.Close()
			defer b.Close()

			go func() {
				_ = writeFrame(a, 3, 99, tt.data)
			}()

			shard, req, data, err := readFrame(b, tt.buf)
			if err != nil {
				t.Fatal(err)
			}
			if shard != 3 || req != 99 || !bytes.Equal(data, tt.data) {
				t.Errorf("got shard=%d req=%d data=%q", shard, req, data)
			}
		})
	}
}

// startServer starts an echo server that prefixes every payload with the peer network
func startServer(t *testing.T) (string, transport.IRPCServerTransport) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "s.sock")

	srv := NewBaseServerTransport(testServerConnector{})
	srv.RegisterHandler(func(shardId uint64, peer transport.Peer, req []byte) []byte {
		return []byte(fmt.Sprintf("%s/%d/%s", peer.Network, shardId, req))
	})

	done := make(chan error, 1)
	go func() {
		done <- srv.Listen(common.ServerConfig{Transport: common.ServerTransportConf{Endpoint: socket, WorkersPerConn: 4}})
	}()
	t.Cleanup(func() {
		_ = srv.Close()
		if err := <-done; err != nil {
			t.Errorf("Listen returned %v after Close", err)
		}
	})

	// wait for the socket
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return socket, srv
}

func TestClientServer(t *testing.T) {
	socket, _ := startServer(t)

	client := NewBaseClientTransport(testConnector{})
	err := client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConf{
			Endpoints:              []string{socket},
			ConnectionsPerEndpoint: 2,
			RetryCount:             2,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := fmt.Sprintf("req-%d", i)
			resp, err := client.Send(uint64(i%3), []byte(req))
			if err != nil {
				t.Errorf("Send %d: %v", i, err)
				return
			}
			if want := fmt.Sprintf("unix/%d/%s", i%3, req); string(resp) != want {
				t.Errorf("Send %d = %q, want %q", i, resp, want)
			}
		}(i)
	}
	wg.Wait()
}

func TestClientNoEndpoints(t *testing.T) {
	client := NewBaseClientTransport(testConnector{})
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("expected error without endpoints")
	}
	if err := client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConf{Endpoints: []string{filepath.Join(t.TempDir(), "missing.sock")}},
	}); err == nil {
		t.Errorf("expected error for unreachable endpoint")
	}
}
