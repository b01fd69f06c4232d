package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// menu choices
const (
	choiceCreate   = "1"
	choiceDeposit  = "2"
	choiceWithdraw = "3"
	choiceBalance  = "4"
	choiceTransfer = "5"
	choiceHistory  = "6"
	choiceExit     = "7"
)

// amount exponent bounds; anything outside is rejected before it reaches the ledger
const (
	minAmountExp = -8
	maxAmountExp = 18
)

type prompter interface {
	Choice(ctx context.Context) (string, error)
	AccountID(ctx context.Context, title string) (string, error)
	Amount(ctx context.Context, title string) (decimal.Decimal, error)
}

// formPrompter asks questions with huh forms.
type formPrompter struct {
	accessible bool
}

func menuOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("1. Create Account", choiceCreate),
		huh.NewOption("2. Deposit Money", choiceDeposit),
		huh.NewOption("3. Withdraw Money", choiceWithdraw),
		huh.NewOption("4. Check Balance", choiceBalance),
		huh.NewOption("5. Transfer Money", choiceTransfer),
		huh.NewOption("6. View Transaction History", choiceHistory),
		huh.NewOption("7. Exit", choiceExit),
	}
}

func (p formPrompter) run(ctx context.Context, field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).WithAccessible(p.accessible).RunWithContext(ctx)
}

func (p formPrompter) Choice(ctx context.Context) (string, error) {
	var choice string
	err := p.run(ctx,
		huh.NewSelect[string]().
			Title("Enter your choice").
			Options(menuOptions()...).
			Value(&choice),
	)
	return choice, err
}

func (p formPrompter) AccountID(ctx context.Context, title string) (string, error) {
	var id string
	err := p.run(ctx,
		huh.NewInput().
			Title(title).
			Value(&id).
			Validate(validateAccountID),
	)
	return strings.TrimSpace(id), err
}

func (p formPrompter) Amount(ctx context.Context, title string) (decimal.Decimal, error) {
	var amount string
	err := p.run(ctx,
		huh.NewInput().
			Title(title).
			Value(&amount).
			Validate(validateAmount),
	)
	if err != nil {
		return decimal.Zero, err
	}
	return parseAmount(amount)
}

func validateAccountID(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("account number cannot be empty")
	}
	return nil
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("please enter a valid number")
	}
	if exp := d.Exponent(); exp < minAmountExp || exp > maxAmountExp {
		return decimal.Zero, fmt.Errorf("please enter an amount with at most %d decimal places", -minAmountExp)
	}
	return d, nil
}
