package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/bankapi/internal/client/api"
	"github.com/dmitrijs2005/bankapi/internal/client/config"
	"github.com/shopspring/decimal"
)

// bankClient is the subset of *api.Client used by the CLI.
type bankClient interface {
	SignUp(ctx context.Context, login, password string) error
	SignIn(ctx context.Context, login, password string) error
	SignOut(ctx context.Context) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	client bankClient
	login  string
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: api.New(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.login != ""
}

func (a *App) getStatus() string {
	if a.login == "" {
		return "(signed out)"
	}
	return fmt.Sprintf("(%s)", a.login)
}

// Run checks that the server answers and then blocks in the REPL.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to bankapi CLI (type 'help' for commands)")
	if err := a.client.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Server %s is not reachable: %s\n", a.config.ServerURL, err)
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
