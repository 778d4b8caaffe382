package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/services"
	"github.com/yudo-scheduler/yudo/internal/client/services/auth"
	"github.com/yudo-scheduler/yudo/internal/client/validate"
	"github.com/yudo-scheduler/yudo/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Signup(ctx context.Context, args []string) error
	OTP(ctx context.Context, args []string) error
	Resend(ctx context.Context, args []string) error
	Reset(ctx context.Context, args []string) error
	QuickLink(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Notifications(ctx context.Context, args []string) error
	Tab(ctx context.Context, args []string) error
	Open(ctx context.Context, args []string) error
	CloseDetail(ctx context.Context, args []string) error
	View(ctx context.Context, args []string) error
	Menu(ctx context.Context, args []string) error
	Collapse(ctx context.Context, args []string) error
	Whoami(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login [email], signup [email], otp <code>, resend, reset [link], quicklink [email], link <url>, whoami, exit"
	helpLoggedIn  = "Available commands: (n)otifications, tab <all|auth|telegram|yudo|form>, open <n|id>, close, view [id], menu, collapse, whoami, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the Yudo client.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Unknown commands are reported back to the user. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Errors returned by handlers are printed as the user-facing message; the
// loop itself never stops on a handler error.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("yudo%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			err = a.Login(ctx, args)
		case "signup", "register":
			err = a.Signup(ctx, args)
		case "otp", "verify":
			err = a.OTP(ctx, args)
		case "resend":
			err = a.Resend(ctx, args)
		case "reset":
			err = a.Reset(ctx, args)
		case "quicklink":
			err = a.QuickLink(ctx, args)
		case "link":
			err = a.Link(ctx, args)

		case "n", "notifications":
			err = a.Notifications(ctx, args)
		case "tab":
			err = a.Tab(ctx, args)
		case "open":
			err = a.Open(ctx, args)
		case "close":
			err = a.CloseDetail(ctx, args)
		case "view":
			err = a.View(ctx, args)
		case "menu":
			err = a.Menu(ctx, args)
		case "collapse":
			err = a.Collapse(ctx, args)

		case "whoami":
			err = a.Whoami(ctx, args)
		case "logout":
			err = a.Logout(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

// describe picks the text shown for a handler error.
func describe(err error) string {
	var f *auth.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	var ve *validate.Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	var se *api.ServerError
	if errors.As(err, &se) || errors.Is(err, api.ErrUnavailable) || errors.Is(err, common.ErrBusy) {
		return services.Message(err, "")
	}
	return err.Error()
}
