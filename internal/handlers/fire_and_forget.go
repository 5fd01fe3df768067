package handlers

import (
	"context"

	"github.com/ngrok/rsocket-go/internal/frame"
	"github.com/ngrok/rsocket-go/internal/wire"
)

// SendFireAndForget allocates a stream id, sends the request (respecting
// lease), and finishes the stream immediately: there is no reply to wait
// for and nothing further is ever dispatched to this id.
func SendFireAndForget(conn Conn, payload wire.Payload) error {
	noop := fireAndForgetRequester{}
	id, err := conn.AllocateStreamId(noop)
	if err != nil {
		return err
	}
	defer conn.Finish(id)

	var f frame.RequestFnf
	if err := f.Pack(id, payload.Metadata, payload.Data, false); err != nil {
		return err
	}
	return conn.SendInitiateRequest(&f)
}

type fireAndForgetRequester struct{}

func (fireAndForgetRequester) HandleFrame(frame.Frame) error { return nil }

// HandleFireAndForget delivers payload to the application handler. There
// is no responder state machine: RSocket defines no reply for this
// interaction, so nothing is registered in the stream table beyond the
// engine's id-availability assertion.
func HandleFireAndForget(conn Conn, payload wire.Payload) {
	go conn.Handler().RequestFireAndForget(context.Background(), payload)
}
