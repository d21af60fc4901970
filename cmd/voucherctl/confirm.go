package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/medcenter/hms-vouchers/internal/desk"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// promptConfirmer asks on the terminal. Standard prompts take y/yes; the
// elevated prompt needs the voucher number typed back.
type promptConfirmer struct {
	in      *bufio.Reader
	out     io.Writer
	yes     bool
	yesPaid bool
}

func (p *promptConfirmer) Confirm(ctx context.Context, c desk.Confirmation) (bool, error) {
	switch c.Tier {
	case workflow.TierStandard:
		if p.yes {
			return true, nil
		}
		fmt.Fprintf(p.out, "%s [y/N]: ", c.Prompt)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes", nil

	case workflow.TierElevated:
		if p.yesPaid {
			return true, nil
		}
		fmt.Fprintf(p.out, "%s\n\nType the voucher number (%s) to confirm: ", c.Prompt, c.Voucher.VoucherNumber)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		return answer == c.Voucher.VoucherNumber, nil
	}

	return false, nil
}

// readLine treats end of input as an empty answer
func (p *promptConfirmer) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
