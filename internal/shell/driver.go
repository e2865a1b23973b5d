package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bookdenapp/bookden-shell/internal/route"
	"github.com/bookdenapp/bookden-shell/internal/viewname"
)

// Driver is a line-oriented front end for an App, standing in for the
// browser: each command becomes a task on the UI loop, and the resulting
// document state is printed back.
type Driver struct {
	app *App
	out io.Writer
}

// NewDriver creates a driver writing command results to out.
func NewDriver(app *App, out io.Writer) *Driver {
	return &Driver{app: app, out: out}
}

// Repl reads commands from in until EOF or ctx cancellation. Unknown input
// prints the usage text rather than failing.
func (d *Driver) Repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	d.printf("bookden shell; type 'help' for commands\n")
	d.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			d.execute(ctx, line)
		}
		d.prompt()
	}
	return scanner.Err()
}

func (d *Driver) execute(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		d.printf(usage)
	case "go":
		d.requireArgs(args, 1, "go <view name>", func() {
			d.app.Do(func() { d.navigateNamed(ctx, strings.Join(args, " ")) })
			d.status()
		})
	case "genre":
		d.requireArgs(args, 1, "genre <name>", func() {
			d.app.Do(func() { d.app.Genre.Open(ctx, strings.Join(args, " "), true) })
			d.status()
		})
	case "book":
		d.requireArgs(args, 1, "book <id>", func() {
			d.app.Do(func() { d.app.Book.Open(ctx, args[0], true) })
			d.status()
		})
	case "back":
		d.app.Do(func() { d.app.Router.Back(ctx) })
		d.status()
	case "forward":
		d.app.Do(func() { d.app.Router.Forward(ctx) })
		d.status()
	case "signin":
		d.requireArgs(args, 2, "signin <username> <password>", func() {
			d.app.Do(func() {
				d.app.Gate.ShowSignIn()
				d.fill(".account-popups .window#sign-in input[name=username]", args[0])
				d.fill(".account-popups .window#sign-in input[name=password]", args[1])
				d.app.Gate.SubmitSignIn(ctx)
			})
			d.settle()
		})
	case "signout":
		d.app.Do(func() { d.app.Gate.SignOut(ctx) })
		d.settle()
	case "click":
		d.requireArgs(args, 1, "click <selector>", func() {
			selector := strings.Join(args, " ")
			d.app.Do(func() {
				target := d.app.Doc.Find(selector).First()
				if target.Length() == 0 {
					d.printf("no element matches %q\n", selector)
					return
				}
				d.app.Binder.Click(target)
			})
			d.settle()
		})
	case "fill":
		d.requireArgs(args, 2, "fill <selector> <value>", func() {
			selector := strings.Join(args[:len(args)-1], " ")
			d.app.Do(func() { d.fill(selector, args[len(args)-1]) })
		})
	case "html":
		d.app.Do(func() { d.printf("%s\n", d.app.Doc.MainHTML()) })
	case "status":
		d.status()
	default:
		d.printf("unknown command %q; type 'help'\n", cmd)
	}
}

// navigateNamed routes a free-form target: paths parse as routes, anything
// else is treated as a view name.
func (d *Driver) navigateNamed(ctx context.Context, target string) {
	if strings.HasPrefix(target, "/") {
		d.app.Router.RestoreFromPath(ctx, target)
		return
	}
	d.app.Router.Navigate(ctx, route.Named(viewname.TitleCase(target)), nil, true)
}

func (d *Driver) fill(selector, value string) {
	sel := d.app.Doc.Find(selector)
	if sel.Length() == 0 {
		d.printf("no element matches %q\n", selector)
		return
	}
	sel.SetAttr("value", value)
}

// settle waits for the loop to go quiet so the printed status reflects any
// fetch the last command started. Best effort: a slow backend can still
// finish after the prompt returns.
func (d *Driver) settle() {
	idle := time.Duration(0)
	for waited := time.Duration(0); waited < 3*time.Second && idle < 200*time.Millisecond; waited += 25 * time.Millisecond {
		time.Sleep(25 * time.Millisecond)
		if d.app.Loop.Pending() == 0 {
			idle += 25 * time.Millisecond
		} else {
			idle = 0
		}
	}
}

func (d *Driver) status() {
	d.settle()
	d.app.Do(func() {
		signedIn := "anonymous"
		if d.app.Sessions.SignedIn() {
			signedIn = "signed in"
		}
		d.printf("at %s (%s)\n", d.app.Router.Current().URI(), signedIn)
	})
}

func (d *Driver) requireArgs(args []string, n int, form string, run func()) {
	if len(args) < n {
		d.printf("usage: %s\n", form)
		return
	}
	run()
}

func (d *Driver) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

func (d *Driver) prompt() {
	fmt.Fprint(d.out, "> ")
}

const usage = `commands:
  go <view|path>         navigate to a view ("My Books") or path ("/my-books")
  genre <name>           open a genre page
  book <id>              open a book page
  back | forward         move through history
  signin <user> <pass>   sign in
  signout                sign out
  click <selector>       click the first element matching a CSS selector
  fill <selector> <val>  set an input's value
  html                   print the main region's HTML
  status                 print the current route and session state
  quit                   exit
`
