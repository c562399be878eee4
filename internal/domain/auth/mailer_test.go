package auth

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_SendsCode(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Addr: "smtp.lab.org:587", From: "calendar@lab.org", User: "u", Password: "p"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	require.NoError(t, m.SendLoginCode(context.Background(), "ada@lab.org", "042042"))
	assert.Equal(t, "smtp.lab.org:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "calendar@lab.org", gotFrom)
	assert.Equal(t, []string{"ada@lab.org"}, gotTo)
	assert.Contains(t, string(gotMsg), "Your login code is 042042.")
	assert.Contains(t, string(gotMsg), "To: ada@lab.org\r\n")
}

func TestSMTPMailer_WrapsError(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Addr: "localhost:25", From: "calendar@lab.org"})
	boom := errors.New("boom")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := m.SendLoginCode(context.Background(), "ada@lab.org", "123456")
	assert.ErrorIs(t, err, boom)
}
