// Package authgate decides which views require an active session and owns
// the sign-in/sign-up overlay: two mutually exclusive popup windows, the
// alert banner, and the account controls in the header chrome.
package authgate

import (
	"context"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/backend"
	"github.com/bookdenapp/bookden-shell/internal/binder"
	"github.com/bookdenapp/bookden-shell/internal/dom"
	domainerrors "github.com/bookdenapp/bookden-shell/internal/errors"
	"github.com/bookdenapp/bookden-shell/internal/logger"
	"github.com/bookdenapp/bookden-shell/internal/session"
	"github.com/bookdenapp/bookden-shell/internal/uiloop"
	"github.com/bookdenapp/bookden-shell/internal/validation"
)

// alertDismiss is how long an alert banner stays up before auto-dismissing.
const alertDismiss = 8 * time.Second

// Overlay selectors, fixed by the shell page chrome.
const (
	selSignInWindow  = ".account-popups .window#sign-in"
	selSignUpWindow  = ".account-popups .window#sign-up"
	selSignNotice    = ".account-popups .page-sign-notice"
	selAlert         = ".account-popups p.alert"
	selAccountEnter  = "header nav.top ul li.account-enter"
	selAccountExit   = "header nav.top ul li.account-exit"
	selSignInButton  = "a#sign-in-button"
	selSignUpButton  = "a#sign-up-button"
	selCancelButton  = ".account-popups button.cancel-button"
	selSignOutButton = "header a#sign-out-button"
	selSignInForm    = ".account-popups .window#sign-in form"
	selSignUpForm    = ".account-popups .window#sign-up form"
)

// Gate blocks protected views for anonymous users and runs the sign-in/out
// flows.
type Gate struct {
	doc      *dom.Document
	binder   *binder.Binder
	client   *backend.Client
	loop     *uiloop.Loop
	sessions *session.State
	validate *validation.Validator
	log      *logger.Logger

	// Protected is the set of view names requiring a session.
	Protected []string
	// Refresh re-runs the current route's data fetch so personalized
	// content follows the session state. Wired to the router.
	Refresh func()

	// busy suppresses cancel and click-outside while a submission is in
	// flight, so the popup cannot close under the completion that needs it
	// as an alert target.
	busy      bool
	stopAlert func() bool
}

// New creates a gate over the shared document and session state.
func New(doc *dom.Document, b *binder.Binder, client *backend.Client, loop *uiloop.Loop, sessions *session.State, protected []string, log *logger.Logger) *Gate {
	return &Gate{
		doc:       doc,
		binder:    b,
		client:    client,
		loop:      loop,
		sessions:  sessions,
		validate:  validation.New(),
		log:       log,
		Protected: protected,
	}
}

// BindControls attaches the overlay and header chrome handlers. The chrome
// is static, but binding still goes through the binder so a rebind is safe.
func (g *Gate) BindControls(ctx context.Context) {
	g.binder.Bind(selSignInButton, binder.EventClick, func(*goquery.Selection) { g.ShowSignIn() })
	g.binder.Bind(selSignUpButton, binder.EventClick, func(*goquery.Selection) { g.ShowSignUp() })
	g.binder.Bind(selCancelButton, binder.EventClick, func(*goquery.Selection) { g.HideAll() })
	g.binder.Bind(selSignOutButton, binder.EventClick, func(*goquery.Selection) { g.SignOut(ctx) })
	g.binder.Bind(selSignInForm, binder.EventSubmit, func(*goquery.Selection) { g.SubmitSignIn(ctx) })
	g.binder.Bind(selSignUpForm, binder.EventSubmit, func(*goquery.Selection) { g.SubmitSignUp(ctx) })
}

// Check reports whether view may render. When it is protected and no one is
// signed in, the sign-in overlay opens with the page notice and the view's
// initializer must not run.
func (g *Gate) Check(view string) bool {
	if slices.Contains(g.Protected, view) && !g.sessions.SignedIn() {
		dom.Show(g.doc.Find(selSignNotice))
		g.ShowSignIn()
		return false
	}
	return true
}

// ShowSignIn opens the sign-in window.
func (g *Gate) ShowSignIn() {
	dom.Show(g.doc.Find(selSignInWindow))
}

// ShowSignUp opens the sign-up window, hiding sign-in first so both are
// never visible together.
func (g *Gate) ShowSignUp() {
	dom.Hide(g.doc.Find(selSignInWindow))
	dom.Show(g.doc.Find(selSignUpWindow))
}

// HideAll closes every overlay element, unless a submission is in flight.
func (g *Gate) HideAll() {
	if g.busy {
		return
	}
	dom.Hide(g.doc.Find(selSignInWindow))
	dom.Hide(g.doc.Find(selSignUpWindow))
	// Popup first, then alert, so the close reads as immediate.
	g.HideAlert()
	dom.Hide(g.doc.Find(selSignNotice))
}

// ClickOutside is the click-off-the-window cancel path; same guard as the
// cancel buttons.
func (g *Gate) ClickOutside() {
	g.HideAll()
}

// Alert shows message in the banner and schedules its dismissal. A newer
// alert replaces the pending one.
func (g *Gate) Alert(message string) {
	banner := g.doc.Find(selAlert)
	banner.SetText(message)
	dom.Show(banner)
	if g.stopAlert != nil {
		g.stopAlert()
	}
	g.stopAlert = g.loop.PostDelayed(alertDismiss, func() {
		g.HideAlert()
	})
}

// HideAlert hides the banner immediately.
func (g *Gate) HideAlert() {
	dom.Hide(g.doc.Find(selAlert))
}

// SubmitSignIn posts the sign-in form.
func (g *Gate) SubmitSignIn(ctx context.Context) {
	g.busy = true
	g.client.SignIn(ctx,
		g.inputVal("#sign-in input[name=username]"),
		g.inputVal("#sign-in input[name=password]"),
		g.accountHandlers())
}

type signUpForm struct {
	FirstName      string `json:"first_name" validate:"required"`
	Surname        string `json:"surname" validate:"required"`
	Username       string `json:"username" validate:"required"`
	Password       string `json:"password" validate:"required,min=8"`
	PasswordRepeat string `json:"-" validate:"required,eqfield=Password"`
}

// SubmitSignUp validates the sign-up form client-side, then posts it.
// Validation failures surface through the banner without any request.
func (g *Gate) SubmitSignUp(ctx context.Context) {
	form := signUpForm{
		FirstName:      g.inputVal("#sign-up input[name=first-name]"),
		Surname:        g.inputVal("#sign-up input[name=surname]"),
		Username:       g.inputVal("#sign-up input[name=username]"),
		Password:       g.inputVal("#sign-up input[name=password]"),
		PasswordRepeat: g.inputVal("#sign-up input[name=password-repeat]"),
	}
	if form.Password != form.PasswordRepeat {
		g.Alert("Passwords do not match")
		return
	}
	if err := g.validate.Validate(form); err != nil {
		var domainErr *domainerrors.Error
		if domainerrors.As(err, &domainErr) {
			g.Alert(domainErr.Message)
		} else {
			g.Alert("Something went wrong")
		}
		return
	}
	g.busy = true
	g.client.SignUp(ctx, form, g.accountHandlers())
}

// accountHandlers processes a sign-in or sign-up outcome: a session id means
// success, anything else lands in the banner.
func (g *Gate) accountHandlers() backend.Handlers[backend.AccountResult] {
	return backend.Handlers[backend.AccountResult]{
		OnSuccess: func(res backend.AccountResult) {
			// Clear before hiding: HideAll is a no-op while busy.
			g.busy = false
			if res.SessionID == nil || *res.SessionID == "" {
				// 2xx carrying a failure payload: surface like validation.
				g.Alert(res.Message)
				return
			}
			g.sessions.Set(*res.SessionID)
			// Flip the controls before the popup drops so the change is
			// never seen half-done.
			g.updateAccountControls()
			g.HideAll()
			if g.Refresh != nil {
				g.Refresh()
			}
		},
		OnError: func(status int, _ []byte) {
			g.busy = false
			g.log.Warn("account submission failed", "status", status)
			g.Alert("Something went wrong")
		},
	}
}

// SignOut fires the sign-out POST and forgets the session without waiting:
// the outcome does not matter to the shell, any non-cleared server session
// is reconciled by a maintenance process.
func (g *Gate) SignOut(ctx context.Context) {
	g.client.SignOut(ctx, g.sessions.Token())
	g.sessions.Clear()
	g.updateAccountControls()
	if g.Refresh != nil {
		g.Refresh()
	}
}

// updateAccountControls keeps the enter/exit header controls mutually
// exclusive with the session state.
func (g *Gate) updateAccountControls() {
	if g.sessions.SignedIn() {
		dom.Hide(g.doc.Find(selAccountEnter))
		dom.Show(g.doc.Find(selAccountExit))
	} else {
		dom.Show(g.doc.Find(selAccountEnter))
		dom.Hide(g.doc.Find(selAccountExit))
	}
}

func (g *Gate) inputVal(selector string) string {
	return g.doc.Find(".account-popups " + selector).AttrOr("value", "")
}
