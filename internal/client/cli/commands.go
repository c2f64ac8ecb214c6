package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bankapi/internal/client/api"
	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/shopspring/decimal"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, []byte, error) {
	login, err := getSimpleText(a.reader, "Enter login", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return login, password, nil
}

// SignUp prompts for a login and password and registers a new account.
func (a *App) SignUp(ctx context.Context) error {
	login, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.SignUp(ctx, login, string(password)); err != nil {
		if errors.Is(err, api.ErrRejected) {
			fmt.Fprintln(a.out, "Sign-up rejected: login is taken or input is invalid")
		} else {
			fmt.Fprintf(a.out, "Sign-up failed: %s\n", err)
		}
		return err
	}

	fmt.Fprintln(a.out, "Account created, you can sign in now")
	return nil
}

// SignIn authenticates and remembers the login for the prompt.
func (a *App) SignIn(ctx context.Context) error {
	login, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.SignIn(ctx, login, string(password)); err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			fmt.Fprintln(a.out, "Sign-in failed: wrong login or password")
		case errors.Is(err, api.ErrRateLimited):
			fmt.Fprintln(a.out, "Too many attempts, try again later")
		default:
			fmt.Fprintf(a.out, "Sign-in failed: %s\n", err)
		}
		return err
	}

	a.login = login
	fmt.Fprintln(a.out, "Signed in")
	return nil
}

func (a *App) Balance(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Sign in first")
		return api.ErrNotSignedIn
	}

	b, err := a.client.Balance(ctx)
	if err != nil {
		a.reportProtected(err)
		return err
	}

	fmt.Fprintf(a.out, "Balance: %s\n", b.String())
	return nil
}

// Transfer prompts for the recipient and amount and sends the money.
func (a *App) Transfer(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Sign in first")
		return api.ErrNotSignedIn
	}

	recipient, err := getSimpleText(a.reader, "Enter recipient login", a.out)
	if err != nil {
		return err
	}
	raw, err := getSimpleText(a.reader, "Enter amount", a.out)
	if err != nil {
		return err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		fmt.Fprintf(a.out, "Invalid amount %q\n", raw)
		return err
	}

	if err := a.client.Transfer(ctx, recipient, amount); err != nil {
		if errors.Is(err, api.ErrRejected) {
			fmt.Fprintln(a.out, "Transfer rejected")
		} else {
			a.reportProtected(err)
		}
		return err
	}

	fmt.Fprintf(a.out, "Sent %s to %s\n", amount.String(), recipient)
	return nil
}

// SignOut revokes the session token. The local session is dropped even
// when the server call fails.
func (a *App) SignOut(ctx context.Context) error {
	if !a.isLoggedIn() {
		return nil
	}
	err := a.client.SignOut(ctx)
	a.login = ""
	if err != nil {
		fmt.Fprintf(a.out, "Sign-out failed on server: %s\n", err)
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// reportProtected prints err and drops the session once the server stops
// accepting the token.
func (a *App) reportProtected(err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		a.login = ""
		fmt.Fprintln(a.out, "Session expired, sign in again")
	case errors.Is(err, api.ErrNoBalance):
		fmt.Fprintln(a.out, "No balance available")
	default:
		fmt.Fprintf(a.out, "Request failed: %s\n", err)
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, common.ErrorInvalidAmount
	}
	return d, nil
}

