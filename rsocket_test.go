package rsocket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ngrok/rsocket-go/internal/wire"
	"github.com/ngrok/rsocket-go/transport"
)

type stubHandler struct {
	requestResponse func(context.Context, Payload) (Payload, error)
}

func (s *stubHandler) OnSetup(string, string, Payload) error { return nil }
func (s *stubHandler) OnMetadataPush([]byte)                 {}
func (s *stubHandler) OnError(error)                         {}

func (s *stubHandler) RequestResponse(ctx context.Context, p Payload) (Payload, error) {
	if s.requestResponse != nil {
		return s.requestResponse(ctx, p)
	}
	return Payload{}, nil
}
func (s *stubHandler) RequestFireAndForget(context.Context, Payload) {}
func (s *stubHandler) RequestStream(context.Context, Payload) wire.Publisher {
	return nil
}
func (s *stubHandler) RequestChannel(context.Context, Payload, uint32, wire.Publisher) wire.Publisher {
	return nil
}

func TestConnectAndAcceptExchangeRequestResponse(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	server := &stubHandler{
		requestResponse: func(ctx context.Context, p Payload) (Payload, error) {
			return Payload{Data: append([]byte("echo:"), p.Data...)}, nil
		},
	}

	long := time.Hour
	serverSocket := Accept(transport.New(serverConn), server, Options().WithKeepAlivePeriod(long).WithMaxLifetimePeriod(long))
	defer serverSocket.Close()
	clientSocket := Connect(transport.New(clientConn), &stubHandler{}, Options().WithKeepAlivePeriod(long).WithMaxLifetimePeriod(long))
	defer clientSocket.Close()

	req, err := clientSocket.RequestResponse(Payload{Data: []byte("hi")})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := req.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "echo:hi", string(resp.Data))
}

func TestConnectWithNilConfigUsesDefaults(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	serverSocket := Accept(transport.New(serverConn), &stubHandler{}, nil)
	defer serverSocket.Close()
	clientSocket := Connect(transport.New(clientConn), &stubHandler{}, nil)
	defer clientSocket.Close()

	require.NotNil(t, clientSocket)
	require.NotNil(t, serverSocket)
}
