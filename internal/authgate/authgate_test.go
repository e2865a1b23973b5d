package authgate

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/binder"
	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/loader"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/session"
	"github.com/bookdenapp/bookden-shell/internal/uiloop"
)

const chromePage = `
<html><body>
<header><nav class="top"><ul>
  <li class="account-enter"><a id="sign-in-button">Sign In</a> <a id="sign-up-button">Sign Up</a></li>
  <li class="account-exit hidden"><a id="sign-out-button">Sign Out</a></li>
</ul></nav></header>
<div class="account-popups">
  <p class="alert hidden"></p>
  <p class="page-sign-notice hidden">Sign in to see this page.</p>
  <div class="window hidden" id="sign-in">
    <form>
      <input name="username" value="mallory">
      <input name="password" value="hunter2hunter2">
    </form>
    <button class="cancel-button">Cancel</button>
  </div>
  <div class="window hidden" id="sign-up">
    <form>
      <input name="first-name" value="Mallory">
      <input name="surname" value="Sharp">
      <input name="username" value="mallory">
      <input name="password" value="hunter2hunter2">
      <input name="password-repeat" value="hunter2hunter2">
    </form>
    <button class="cancel-button">Cancel</button>
  </div>
</div>
<main></main>
</body></html>`

type fixture struct {
	doc      *dom.Document
	loop     *uiloop.Loop
	sessions *session.State
	gate     *Gate
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	doc, err := dom.Parse(chromePage)
	require.NoError(t, err)

	loop := uiloop.New()
	log := logger.New(logger.Config{Writer: os.Stdout, Level: slog.LevelError, Format: "json"})
	l, err := loader.New(loader.Config{BaseURL: server.URL}, loop, log)
	require.NoError(t, err)

	sessions := session.New()
	client := backend.New(l, sessions, log)
	gate := New(doc, binder.New(), client, loop, sessions, []string{"My Books", "Recommendations", "Diary"}, log)
	return &fixture{doc: doc, loop: loop, sessions: sessions, gate: gate}
}

func (f *fixture) settle(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.loop.Pending() >= n }, time.Second, time.Millisecond)
	f.loop.Drain()
}

func signInHandler(t *testing.T, sessionID *string, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/account/sign_in", r.URL.Path)
		var body map[string]string
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		require.Equal(t, "mallory", body["username"])

		resp, err := json.Marshal(backend.AccountResult{SessionID: sessionID, Message: message})
		require.NoError(t, err)
		_, _ = w.Write(resp)
	}
}

func TestCheckBlocksProtectedViewWhenAnonymous(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.False(t, f.gate.Check("My Books"))
	assert.True(t, dom.Visible(f.doc.Find(selSignNotice)))
	assert.True(t, dom.Visible(f.doc.Find(selSignInWindow)))
}

func TestCheckAllowsUnprotectedAndSignedIn(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.True(t, f.gate.Check("Home"))
	assert.False(t, dom.Visible(f.doc.Find(selSignInWindow)))

	f.sessions.Set("tok")
	assert.True(t, f.gate.Check("My Books"))
}

func TestShowSignUpHidesSignIn(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	f.gate.ShowSignIn()
	f.gate.ShowSignUp()
	assert.False(t, dom.Visible(f.doc.Find(selSignInWindow)))
	assert.True(t, dom.Visible(f.doc.Find(selSignUpWindow)))
}

func TestSignInSuccess(t *testing.T) {
	id := "sess-1"
	f := newFixture(t, signInHandler(t, &id, ""))
	f.gate.ShowSignIn()

	refreshed := false
	f.gate.Refresh = func() { refreshed = true }

	f.gate.SubmitSignIn(context.Background())
	f.settle(t, 1)

	assert.Equal(t, "sess-1", f.sessions.Token())
	assert.True(t, refreshed)
	assert.False(t, dom.Visible(f.doc.Find(selSignInWindow)))
	assert.False(t, dom.Visible(f.doc.Find(selAccountEnter)))
	assert.True(t, dom.Visible(f.doc.Find(selAccountExit)))
}

func TestSignInRejectedShowsAlertAndKeepsPopup(t *testing.T) {
	f := newFixture(t, signInHandler(t, nil, "Incorrect username or password"))
	f.gate.ShowSignIn()

	f.gate.SubmitSignIn(context.Background())
	f.settle(t, 1)

	assert.False(t, f.sessions.SignedIn())
	banner := f.doc.Find(selAlert)
	assert.True(t, dom.Visible(banner))
	assert.Equal(t, "Incorrect username or password", banner.Text())
	assert.True(t, dom.Visible(f.doc.Find(selSignInWindow)))
}

func TestCancelIgnoredWhileSubmissionInFlight(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		id := "sess-1"
		resp, _ := json.Marshal(backend.AccountResult{SessionID: &id})
		_, _ = w.Write(resp)
	})
	f.gate.ShowSignIn()

	f.gate.SubmitSignIn(context.Background())
	f.gate.HideAll()
	assert.True(t, dom.Visible(f.doc.Find(selSignInWindow)), "cancel must not close the popup mid-flight")

	close(release)
	f.settle(t, 1)
	assert.False(t, dom.Visible(f.doc.Find(selSignInWindow)))
}

func TestSignUpValidationFailureSkipsRequest(t *testing.T) {
	var requests atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	})
	f.doc.Find(".account-popups #sign-up input[name=first-name]").SetAttr("value", "")

	f.gate.SubmitSignUp(context.Background())

	banner := f.doc.Find(selAlert)
	assert.True(t, dom.Visible(banner))
	assert.Equal(t, "first_name is required", banner.Text())
	assert.Zero(t, requests.Load())
}

func TestSignUpPasswordMismatch(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	f.doc.Find(".account-popups #sign-up input[name=password-repeat]").SetAttr("value", "different1")

	f.gate.SubmitSignUp(context.Background())

	assert.Equal(t, "Passwords do not match", f.doc.Find(selAlert).Text())
}

func TestSignUpSuccess(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/account/sign_up", r.URL.Path)
		var form signUpForm
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &form))
		assert.Equal(t, "Mallory", form.FirstName)
		assert.Empty(t, form.PasswordRepeat, "the repeat field stays client-side")

		id := "sess-2"
		resp, _ := json.Marshal(backend.AccountResult{SessionID: &id})
		_, _ = w.Write(resp)
	})
	f.gate.ShowSignUp()

	f.gate.SubmitSignUp(context.Background())
	f.settle(t, 1)

	assert.Equal(t, "sess-2", f.sessions.Token())
	assert.False(t, dom.Visible(f.doc.Find(selSignUpWindow)))
}

func TestSignOutPostsBareTokenAndClearsSession(t *testing.T) {
	got := make(chan string, 1)
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/account/sign_out", r.URL.Path)
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got <- string(data)
	})
	f.sessions.Set("sess-3")
	f.gate.updateAccountControls()

	refreshed := false
	f.gate.Refresh = func() { refreshed = true }
	f.gate.SignOut(context.Background())

	// The session drops locally without waiting on the server.
	assert.False(t, f.sessions.SignedIn())
	assert.True(t, refreshed)
	assert.True(t, dom.Visible(f.doc.Find(selAccountEnter)))
	assert.False(t, dom.Visible(f.doc.Find(selAccountExit)))

	select {
	case body := <-got:
		assert.Equal(t, "sess-3", body)
	case <-time.After(time.Second):
		t.Fatal("sign-out request never arrived")
	}
	f.settle(t, 1)
}

func TestAlertReplacement(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	f.gate.Alert("first")
	f.gate.Alert("second")

	banner := f.doc.Find(selAlert)
	assert.True(t, dom.Visible(banner))
	assert.Equal(t, "second", banner.Text())

	f.gate.HideAlert()
	assert.False(t, dom.Visible(banner))
}
