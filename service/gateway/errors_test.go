package gateway

import (
	"context"
	"io"
	"testing"

	"ChatWave/tools/errs"

	"github.com/stretchr/testify/assert"
)

func TestErrorPayloadTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantMsg  string
		canRetry bool
	}{
		{"validation", errs.Validation("Recipient is required").Wrap(), "Recipient is required", false},
		{"authorization", errs.Forbidden("Not authorized").Wrap(), "Not authorized", false},
		{"not found", errs.NotFound("Message not found").Wrap(), "Message not found", false},
		{"conflict", errs.Conflict("Already reacted with this emoji").Wrap(), "Already reacted with this emoji", false},
		{"infrastructure", errs.ErrInternalServer.WrapMsg("mongo timeout"), genericErrMsg, true},
		{"plain error", io.ErrUnexpectedEOF, genericErrMsg, true},
		{"panic", errs.ErrPanic("boom"), genericErrMsg, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := errorPayload("send-message", tc.err)
			assert.Equal(t, tc.wantMsg, p.Message)
			assert.Equal(t, "send-message", p.Context)
			assert.Equal(t, tc.canRetry, p.CanRetry)
		})
	}
}

func TestErrorPayloadNeverLeaksInternalDetail(t *testing.T) {
	err := errs.ErrInternalServer.WrapMsg("dial tcp 10.0.0.5:27017: connection refused")
	p := errorPayload("message-read", err)
	assert.Equal(t, genericErrMsg, p.Message)
	assert.NotContains(t, p.Message, "27017")
}

func TestDispatchTurnsHandlerErrorIntoErrorEvent(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "u-alice", "alice")
	ca := f.connect(t, alice)

	// missing recipient trips validation inside the handler
	f.srv.dispatch(ca, &Frame{Event: EvtSendMessage, Data: map[string]any{"content": "x"}})

	frame := takeFrame(t, ca)
	assert.Equal(t, EvtError, frame.Event)
	assert.Equal(t, "Recipient is required", dataString(t, frame, "message"))
	assert.Equal(t, EvtSendMessage, dataString(t, frame, "context"))
	assert.Equal(t, false, frame.Data["canRetry"])
}

func TestDispatchRecoversPanicAsRetryableError(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "u-alice", "alice")
	ca := f.connect(t, alice)

	f.srv.disp.Register("explode", func(ctx context.Context, c *Client, data map[string]any) error {
		panic("nil map write")
	})

	f.srv.dispatch(ca, &Frame{Event: "explode"})

	frame := takeFrame(t, ca)
	assert.Equal(t, EvtError, frame.Event)
	assert.Equal(t, genericErrMsg, dataString(t, frame, "message"))
	assert.Equal(t, "explode", dataString(t, frame, "context"))
	assert.Equal(t, true, frame.Data["canRetry"])
}
