package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectByToken(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "u-alice", "alice")
	ca := f.connect(t, alice)

	require.True(t, f.srv.DisconnectByToken(ca.Token))

	frame := takeFrame(t, ca)
	assert.Equal(t, EvtSessionRevoked, frame.Event)
	assert.NotEmpty(t, dataString(t, frame, "reason"))

	select {
	case <-ca.Done():
	default:
		t.Fatal("connection was not closed")
	}
}

func TestDisconnectByTokenUnknown(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.srv.DisconnectByToken("tok-never-issued"))
}

func TestDisconnectByTokenOnlyHitsThatConnection(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "u-alice", "alice")
	bob := f.addUser(t, "u-bob", "bob")
	ca := f.connect(t, alice)
	cb := f.connect(t, bob)

	require.True(t, f.srv.DisconnectByToken(ca.Token))

	noFrame(t, cb)
	select {
	case <-cb.Done():
		t.Fatal("unrelated connection was closed")
	default:
	}
}
