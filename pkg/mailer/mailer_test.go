package mailer

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_SendEmail(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m := New(Config{Host: "smtp.local", Port: "2525", Sender: "noreply@sic-di.com"})
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, m.SendEmail("ana@sic-di.com", "Acceso", "<p>Hola</p>"))
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"ana@sic-di.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Acceso\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html; charset=UTF-8")
}

func TestMailer_Validation(t *testing.T) {
	m := New(Config{Host: "smtp.local", Port: "25"})
	assert.Error(t, m.SendEmail("a@b.mx", "s", "b"), "missing sender")

	m = New(Config{Host: "smtp.local", Port: "25", Sender: "x@y.mx"})
	assert.Error(t, m.SendEmail("", "s", "b"))
	assert.Error(t, m.SendEmail("a@b.mx", "", "b"))

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.ErrorContains(t, m.SendEmail("a@b.mx", "s", "plain"), "refused")
}

func TestMailer_Enabled(t *testing.T) {
	assert.False(t, New(Config{}).Enabled())
	assert.True(t, New(Config{Host: "smtp.local"}).Enabled())
	var m *Mailer
	assert.False(t, m.Enabled())
}
