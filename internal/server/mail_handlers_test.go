package server

import (
	"net/http"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) mailbox(name, token string) []models.EmailView {
	e.t.Helper()
	resp := e.do(http.MethodGet, "/api/mail/emails/"+name, nil, token)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	var emails []models.EmailView
	decodeJSON(e.t, resp, &emails)
	return emails
}

func TestMail_SendAndMailboxes(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, _ := env.register("alice")
	bobToken, _ := env.register("bob")
	carolToken, _ := env.register("carol")

	resp := env.do(http.MethodPost, "/api/mail/emails", map[string]string{
		"recipients": "bob@example.com, carol@example.com",
		"subject":    "Lunch",
		"body":       "Noon?",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sent map[string]string
	decodeJSON(t, resp, &sent)
	assert.Equal(t, "Email sent successfully.", sent["message"])

	outbox := env.mailbox("sent", aliceToken)
	require.Len(t, outbox, 1)
	assert.True(t, outbox[0].Read, "the sender's copy starts read")
	assert.Equal(t, "alice@example.com", outbox[0].Sender)
	assert.ElementsMatch(t, []string{"bob@example.com", "carol@example.com"}, outbox[0].Recipients)
	assert.Empty(t, env.mailbox("inbox", aliceToken))

	inbox := env.mailbox("inbox", bobToken)
	require.Len(t, inbox, 1)
	assert.False(t, inbox[0].Read)
	assert.Equal(t, "Lunch", inbox[0].Subject)
	assert.Len(t, env.mailbox("inbox", carolToken), 1)

	emailURL := urlf("/api/mail/emails/%d", inbox[0].ID)
	resp = env.do(http.MethodGet, emailURL, nil, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var single models.EmailView
	decodeJSON(t, resp, &single)
	assert.Equal(t, "Noon?", single.Body)

	// Copies are private to their owner.
	resp = env.do(http.MethodGet, emailURL, nil, carolToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPut, emailURL, map[string]bool{"read": true, "archived": true}, bobToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, env.mailbox("inbox", bobToken))
	archived := env.mailbox("archive", bobToken)
	require.Len(t, archived, 1)
	assert.True(t, archived[0].Read)

	resp = env.do(http.MethodPut, emailURL, map[string]bool{"archived": false}, bobToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, env.mailbox("inbox", bobToken), 1)

	resp = env.do(http.MethodPut, emailURL, map[string]bool{"read": false}, carolToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMail_Errors(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, _ := env.register("alice")

	resp := env.do(http.MethodPost, "/api/mail/emails", map[string]string{
		"recipients": "nobody@example.com", "subject": "Hi", "body": "?",
	}, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User with email nobody@example.com does not exist.", errorBody(t, resp).Error)

	resp = env.do(http.MethodPost, "/api/mail/emails", map[string]string{
		"recipients": " , ", "subject": "Hi", "body": "?",
	}, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "At least one recipient required.", errorBody(t, resp).Error)

	resp = env.do(http.MethodGet, "/api/mail/emails/trash", nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid mailbox.", errorBody(t, resp).Error)

	resp = env.do(http.MethodGet, "/api/mail/emails/inbox", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMail_RecipientsMatchIgnoringCase(t *testing.T) {
	env := newTestEnv(t, false)
	aliceToken, _ := env.register("alice")

	resp := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":     "carol",
		"email":        "Carol@Example.com",
		"password":     testPassword,
		"confirmation": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeJSON(t, resp, &registered)
	assert.Equal(t, "carol@example.com", registered.User.Email)

	resp = env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":     "carol2",
		"email":        "carol@example.com",
		"password":     testPassword,
		"confirmation": testPassword,
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(http.MethodPost, "/api/mail/emails", map[string]string{
		"recipients": "CAROL@example.com",
		"subject":    "Hi",
		"body":       "Hello",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	inbox := env.mailbox("inbox", registered.Token)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Hi", inbox[0].Subject)
}
