// Package shell is the interactive menu in front of the ledger.
// It validates input before the ledger sees it and reports every ledger error as a message.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bank/internal/domain"
	"go.uber.org/zap"
)

const title = "Bank Account Management System"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	okStyle      = lipgloss.NewStyle().Foreground(special)
	failStyle    = lipgloss.NewStyle().Foreground(warning)
	historyStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(subtle).Padding(0, 1)
)

type bank interface {
	CreateAccount(ctx context.Context, opening decimal.Decimal) (string, error)
	Lookup(id string) (*domain.Account, error)
	Deposit(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
	Balance(id string) (decimal.Decimal, error)
	Transfer(ctx context.Context, amount decimal.Decimal, fromID, toID string) error
	History(id string) ([]domain.Record, error)
}

// Shell runs the numbered menu until the user exits.
type Shell struct {
	bank    bank
	prompt  prompter
	out     io.Writer
	l       *zap.Logger
	timeout time.Duration
}

// New creates a shell that prompts with huh forms and prints to out.
// timeout bounds every ledger operation including its state file write.
func New(l *zap.Logger, b bank, out io.Writer, accessible bool, timeout time.Duration) *Shell {
	return newShell(l, b, formPrompter{accessible: accessible}, out, timeout)
}

func newShell(l *zap.Logger, b bank, p prompter, out io.Writer, timeout time.Duration) *Shell {
	if l == nil {
		l = zap.NewNop()
	}
	return &Shell{bank: b, prompt: p, out: out, l: l, timeout: timeout}
}

// Run shows the menu until exit is chosen, the prompt is aborted or ctx is done.
// A canceled ctx also interrupts an open prompt.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, headerStyle.Render(title))

	for {
		if ctx.Err() != nil {
			return s.exit()
		}

		choice, err := s.prompt.Choice(ctx)
		if err != nil {
			// a canceled ctx surfaces from huh as ErrTimeout or the ctx error
			if ctx.Err() != nil || errors.Is(err, huh.ErrUserAborted) {
				return s.exit()
			}
			return errors.Wrap(err, "read menu choice")
		}

		if choice == choiceExit {
			return s.exit()
		}

		if err := s.handle(ctx, choice); err != nil {
			if ctx.Err() != nil {
				return s.exit()
			}
			if errors.Is(err, huh.ErrUserAborted) {
				s.fail("Cancelled.")
				continue
			}
			return err
		}
	}
}

// exit ends the session. Every completed operation is already in the state file.
func (s *Shell) exit() error {
	s.ok("Thank you! Data saved successfully.")
	return nil
}

// handle runs one menu action. Only prompt failures are returned.
func (s *Shell) handle(ctx context.Context, choice string) error {
	switch choice {
	case choiceCreate:
		return s.createAccount(ctx)
	case choiceDeposit:
		return s.deposit(ctx)
	case choiceWithdraw:
		return s.withdraw(ctx)
	case choiceBalance:
		return s.balance(ctx)
	case choiceTransfer:
		return s.transfer(ctx)
	case choiceHistory:
		return s.history(ctx)
	default:
		s.fail("Invalid choice.")
		return nil
	}
}

func (s *Shell) createAccount(ctx context.Context) error {
	amount, err := s.prompt.Amount(ctx, "Enter initial balance")
	if err != nil {
		return err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	id, err := s.bank.CreateAccount(ctx, amount)
	if err != nil {
		s.report(err)
		return nil
	}

	s.ok(fmt.Sprintf("Account created successfully!\nAccount Number: %s", id))
	return nil
}

func (s *Shell) deposit(ctx context.Context) error {
	id, ok, err := s.existingAccount(ctx, "Enter account number")
	if err != nil || !ok {
		return err
	}

	amount, err := s.prompt.Amount(ctx, "Enter deposit amount")
	if err != nil {
		return err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	balance, err := s.bank.Deposit(ctx, id, amount)
	if err != nil {
		s.report(err)
		return nil
	}

	s.ok(fmt.Sprintf("Deposited %s. Current balance: %s", amount.String(), balance.String()))
	return nil
}

func (s *Shell) withdraw(ctx context.Context) error {
	id, ok, err := s.existingAccount(ctx, "Enter account number")
	if err != nil || !ok {
		return err
	}

	amount, err := s.prompt.Amount(ctx, "Enter withdrawal amount")
	if err != nil {
		return err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	balance, err := s.bank.Withdraw(ctx, id, amount)
	if err != nil {
		s.report(err)
		return nil
	}

	s.ok(fmt.Sprintf("Withdrew %s. Current balance: %s", amount.String(), balance.String()))
	return nil
}

func (s *Shell) balance(ctx context.Context) error {
	id, err := s.prompt.AccountID(ctx, "Enter account number")
	if err != nil {
		return err
	}

	balance, err := s.bank.Balance(id)
	if err != nil {
		s.report(err)
		return nil
	}

	s.ok(fmt.Sprintf("Current balance: %s", balance.String()))
	return nil
}

func (s *Shell) transfer(ctx context.Context) error {
	fromID, err := s.prompt.AccountID(ctx, "Enter your account number")
	if err != nil {
		return err
	}
	toID, err := s.prompt.AccountID(ctx, "Enter target account number")
	if err != nil {
		return err
	}

	_, fromErr := s.bank.Lookup(fromID)
	_, toErr := s.bank.Lookup(toID)
	if fromErr != nil || toErr != nil {
		s.fail("One or both accounts not found")
		return nil
	}

	amount, err := s.prompt.Amount(ctx, "Enter transfer amount")
	if err != nil {
		return err
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.bank.Transfer(ctx, amount, fromID, toID); err != nil {
		s.report(err)
		return nil
	}

	s.ok(fmt.Sprintf("Transferred %s to account %s", amount.String(), toID))
	return nil
}

func (s *Shell) history(ctx context.Context) error {
	id, err := s.prompt.AccountID(ctx, "Enter account number")
	if err != nil {
		return err
	}

	records, err := s.bank.History(id)
	if err != nil {
		s.report(err)
		return nil
	}

	body := "No transactions"
	if len(records) > 0 {
		lines := make([]string, 0, len(records))
		for _, rec := range records {
			lines = append(lines, rec.String())
		}
		body = strings.Join(lines, "\n")
	}

	fmt.Fprintln(s.out, "--- Transaction History ---")
	fmt.Fprintln(s.out, historyStyle.Render(body))
	return nil
}

// existingAccount asks for an id and reports an unknown one before any amount is asked.
func (s *Shell) existingAccount(ctx context.Context, title string) (string, bool, error) {
	id, err := s.prompt.AccountID(ctx, title)
	if err != nil {
		return "", false, err
	}

	if _, err := s.bank.Lookup(id); err != nil {
		s.report(err)
		return "", false, nil
	}

	return id, true, nil
}

func (s *Shell) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Shell) report(err error) {
	msg := describe(err)
	if msg == "" {
		s.l.Error("ledger operation failed", zap.Error(err))
		msg = fmt.Sprintf("Operation failed: %v", err)
	}
	s.fail(msg)
}

// describe maps ledger errors to user messages. Unknown errors yield "".
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Amount must be positive"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, domain.ErrSameAccount):
		return "Cannot transfer to the same account"
	default:
		return ""
	}
}

func (s *Shell) ok(msg string) {
	fmt.Fprintln(s.out, okStyle.Render(msg))
}

func (s *Shell) fail(msg string) {
	fmt.Fprintln(s.out, failStyle.Render(msg))
}
