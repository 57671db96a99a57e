package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/internal/entity"
	"github.com/vadiminshakov/papertrade/internal/services/ledger"
	"github.com/vadiminshakov/papertrade/internal/services/pricer"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF5C77"})
	headStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9C9C9C", Dark: "#5C5C5C"})
)

const helpText = `commands:
  deposit <amount>        add funds
  withdraw <amount>       remove funds
  buy <symbol> <qty>      buy shares at the current quote
  sell <symbol> <qty>     sell held shares at the current quote
  portfolio               cash, holdings, total value and P&L
  history                 transaction history, newest first
  reset                   start over with a fresh account
  help                    this text
  quit                    exit`

// Console drives one account from a line-oriented terminal session.
// It owns no business rules: every command maps to one ledger
// operation and every failure kind maps to one message.
type Console struct {
	account *ledger.Account
	reset   func() (*ledger.Account, error)
	in      io.Reader
	out     io.Writer
	logger  *zap.Logger
}

// New creates a console over the account. reset may be nil, which
// disables the reset command.
func New(account *ledger.Account, reset func() (*ledger.Account, error), in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{account: account, reset: reset, in: in, out: out, logger: logger}
}

// Run reads commands until EOF, quit, or context cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, dimStyle.Render("papertrade — type 'help' for commands"))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		output, quit := c.Exec(ctx, scanner.Text())
		if output != "" {
			fmt.Fprintln(c.out, output)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs a single command line and returns the rendered response.
func (c *Console) Exec(ctx context.Context, line string) (output string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}

	switch strings.ToLower(fields[0]) {
	case "deposit":
		if len(fields) != 2 {
			return errStyle.Render("usage: deposit <amount>"), false
		}
		return c.receipt(c.account.Deposit(fields[1])), false

	case "withdraw":
		if len(fields) != 2 {
			return errStyle.Render("usage: withdraw <amount>"), false
		}
		return c.receipt(c.account.Withdraw(fields[1])), false

	case "buy", "sell":
		if len(fields) != 3 {
			return errStyle.Render(fmt.Sprintf("usage: %s <symbol> <qty>", strings.ToLower(fields[0]))), false
		}
		symbol := strings.ToUpper(fields[1])
		quantity, err := ledger.ParseQuantity(fields[2])
		if err != nil {
			return c.failure(err), false
		}
		if strings.EqualFold(fields[0], "buy") {
			return c.receipt(c.account.Buy(ctx, symbol, quantity)), false
		}
		return c.receipt(c.account.Sell(ctx, symbol, quantity)), false

	case "portfolio":
		return c.renderPortfolio(c.account.Valuation(ctx)), false

	case "history":
		return c.renderHistory(c.account.History()), false

	case "reset":
		if c.reset == nil {
			return errStyle.Render("reset is not available"), false
		}
		fresh, err := c.reset()
		if err != nil {
			c.logger.Error("reset failed", zap.Error(err))
			return errStyle.Render("reset failed: " + err.Error()), false
		}
		c.account = fresh
		return okStyle.Render("fresh account ready"), false

	case "help":
		return helpText, false

	case "quit", "exit":
		return dimStyle.Render("bye"), true

	default:
		return errStyle.Render(fmt.Sprintf("unknown command %q, type 'help'", fields[0])), false
	}
}

func (c *Console) receipt(r ledger.Receipt, err error) string {
	if err != nil {
		return c.failure(err)
	}
	return okStyle.Render(r.String())
}

// failure turns a ledger or pricer error kind into a user-facing line.
func (c *Console) failure(err error) string {
	var msg string
	switch {
	case errors.Is(err, ledger.ErrInvalidAmountFormat):
		msg = "amount must be a number"
	case errors.Is(err, ledger.ErrNonPositiveAmount):
		msg = "amount must be greater than zero"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		msg = "quantity must be a positive whole number"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		msg = "insufficient funds"
	case errors.Is(err, ledger.ErrNoSuchHolding):
		msg = "you do not hold that symbol"
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		msg = "not enough shares to sell"
	case errors.Is(err, pricer.ErrUnknownSymbol):
		msg = "unknown symbol"
	case errors.Is(err, pricer.ErrQuoteUnavailable):
		msg = "quote source is unavailable, try again"
	default:
		msg = err.Error()
	}
	return errStyle.Render(msg)
}

func (c *Console) renderPortfolio(report ledger.Report) string {
	var b strings.Builder
	b.WriteString(headStyle.Render("portfolio") + "\n")
	b.WriteString(fmt.Sprintf("cash:     %s\n", entity.FormatMoney(report.Cash)))

	if len(report.Holdings) == 0 {
		b.WriteString(dimStyle.Render("no holdings") + "\n")
	} else {
		for _, hv := range report.Holdings {
			if hv.Unpriced {
				b.WriteString(fmt.Sprintf("  %-6s %6d  %s\n", hv.Symbol, hv.Quantity, dimStyle.Render("quote unavailable")))
				continue
			}
			b.WriteString(fmt.Sprintf("  %-6s %6d @ %s = %s\n",
				hv.Symbol, hv.Quantity, entity.FormatMoney(hv.Price), entity.FormatMoney(hv.Value)))
		}
		b.WriteString(fmt.Sprintf("holdings: %s\n", entity.FormatMoney(report.TotalHoldingsValue)))
	}

	b.WriteString(fmt.Sprintf("total:    %s\n", entity.FormatMoney(report.TotalPortfolioValue)))
	pnl := fmt.Sprintf("p&l:      %s", entity.FormatMoney(report.ProfitAndLoss))
	if report.ProfitAndLoss.IsNegative() {
		pnl = errStyle.Render(pnl)
	} else {
		pnl = okStyle.Render(pnl)
	}
	b.WriteString(pnl)
	return b.String()
}

func (c *Console) renderHistory(history []entity.Transaction) string {
	if len(history) == 0 {
		return dimStyle.Render("no transactions yet")
	}

	var b strings.Builder
	b.WriteString(headStyle.Render("history") + "\n")
	for _, tx := range history {
		b.WriteString(fmt.Sprintf("%s  %s\n", tx.Time.Format("2006-01-02 15:04:05"), tx.String()))
	}
	return strings.TrimRight(b.String(), "\n")
}
