package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pridebank/atmgw/internal/iso"
	"github.com/pridebank/atmgw/internal/logging"
)

type echoHandler struct{}

func (echoHandler) Process(_ context.Context, req *iso.Message) *iso.Message {
	resp := iso.NewMessage(iso.ResponseMTI(req.MTI()))
	if req.Has(11) {
		resp.SetField(11, req.Field(11).Clone())
	}
	resp.SetField(39, iso.NewText(iso.TypeAlpha, "00", 2))
	return resp
}

type muteHandler struct{}

func (muteHandler) Process(context.Context, *iso.Message) *iso.Message { return nil }

func startServer(t *testing.T, handler Handler) *Server {
	t.Helper()

	opts := Options{Addr: "127.0.0.1:0", Threads: 4, ReadTimeout: 2 * time.Second}
	s := New(opts, iso.NewDictionary(), handler, logging.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return s
}

func dialServer(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func networkPing(stan string) *iso.Message {
	req := iso.NewMessage(iso.MTINetworkRequest)
	req.SetField(11, iso.NewText(iso.TypeNumeric, stan, 6))
	return req
}

func TestServerEchoesResponses(t *testing.T) {
	s := startServer(t, echoHandler{})
	conn := dialServer(t, s)
	dict := iso.NewDictionary()

	require.NoError(t, iso.WriteMessage(conn, networkPing("000001")))

	resp, err := iso.ReadMessage(conn, dict)
	require.NoError(t, err)
	assert.Equal(t, iso.MTINetworkResponse, resp.MTI())
	assert.Equal(t, "000001", resp.Text(11))
	assert.Equal(t, "00", resp.Text(39))

	// A second exchange rides the same connection.
	require.NoError(t, iso.WriteMessage(conn, networkPing("000002")))

	resp, err = iso.ReadMessage(conn, dict)
	require.NoError(t, err)
	assert.Equal(t, "000002", resp.Text(11))
}

func TestServerRejectsGarbageAndKeepsConnection(t *testing.T) {
	s := startServer(t, echoHandler{})
	conn := dialServer(t, s)
	dict := iso.NewDictionary()

	// A framed payload too short to carry an MTI and bitmap.
	payload := []byte("abc")
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(payload)))
	_, err := conn.Write(append(hdr[:], payload...))
	require.NoError(t, err)

	resp, err := iso.ReadMessage(conn, dict)
	require.NoError(t, err)
	assert.Equal(t, iso.MTIFinancialResponse, resp.MTI())
	assert.Equal(t, "30", resp.Text(39))

	// The connection survives the bad frame.
	require.NoError(t, iso.WriteMessage(conn, networkPing("000003")))

	resp, err = iso.ReadMessage(conn, dict)
	require.NoError(t, err)
	assert.Equal(t, iso.MTINetworkResponse, resp.MTI())
	assert.Equal(t, "000003", resp.Text(11))
}

func TestServerSkipsNilResponses(t *testing.T) {
	s := startServer(t, muteHandler{})
	conn := dialServer(t, s)

	require.NoError(t, iso.WriteMessage(conn, networkPing("000004")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, err := conn.Read(make([]byte, 1))
	var nerr net.Error
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.Timeout())
}

func TestServerServesConcurrentConnections(t *testing.T) {
	s := startServer(t, echoHandler{})
	dict := iso.NewDictionary()

	for i := 1; i <= 3; i++ {
		conn := dialServer(t, s)
		stan := fmt.Sprintf("%06d", i)

		require.NoError(t, iso.WriteMessage(conn, networkPing(stan)))

		resp, err := iso.ReadMessage(conn, dict)
		require.NoError(t, err)
		assert.Equal(t, stan, resp.Text(11))
	}
}

func TestServerDropsIdleConnection(t *testing.T) {
	opts := Options{Addr: "127.0.0.1:0", Threads: 2, ReadTimeout: 100 * time.Millisecond}
	s := New(opts, iso.NewDictionary(), echoHandler{}, logging.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)

	cancel()
	assert.NoError(t, <-done)
}

func TestServerStopClosesConnections(t *testing.T) {
	s := startServer(t, echoHandler{})
	conn := dialServer(t, s)
	dict := iso.NewDictionary()

	// One exchange guarantees the connection is tracked before Stop.
	require.NoError(t, iso.WriteMessage(conn, networkPing("000005")))
	_, err := iso.ReadMessage(conn, dict)
	require.NoError(t, err)

	s.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServerListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	s := New(Options{Addr: l.Addr().String(), Threads: 1}, iso.NewDictionary(), echoHandler{}, logging.NewNoop())

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
