package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"bankdesk/models"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	debitStyle  = cellStyle.Foreground(colorError)
	creditStyle = cellStyle.Foreground(colorSuccess)
)

// printer renders command results to one writer, as styled text or JSON.
type printer struct {
	w    io.Writer
	json bool
}

func (p printer) success(format string, args ...any) {
	fmt.Fprint(p.w, successStyle.Render("✓ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprint(p.w, warningStyle.Render("⚠ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) fail(format string, args ...any) {
	fmt.Fprint(p.w, errorStyle.Render("✗ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) info(format string, args ...any) {
	fmt.Fprint(p.w, infoStyle.Render("ℹ "))
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) muted(format string, args ...any) {
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// section prints a header with an underline.
func (p printer) section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, primaryStyle.Render(title))
	fmt.Fprintln(p.w, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

func (p printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

func (p printer) accounts(accounts []models.Account) error {
	if p.json {
		return p.encode(accounts)
	}
	if len(accounts) == 0 {
		p.warning("No accounts yet")
		return nil
	}
	t := newTable("NUMBER", "TYPE", "CURRENCY", "BALANCE", "OVERDRAFT", "OPENED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, a := range accounts {
		t.Row(a.Number, string(a.Type), a.Currency,
			a.Balance.StringFixed(2), a.OverdraftLimit.StringFixed(2),
			a.CreatedAt.Local().Format("2006-01-02"))
	}
	fmt.Fprintln(p.w, t.String())
	return nil
}

func (p printer) account(a *models.Account) error {
	if p.json {
		return p.encode(a)
	}
	p.section("Account " + a.Number)
	fmt.Fprintf(p.w, "Type:      %s\n", a.Type)
	fmt.Fprintf(p.w, "Currency:  %s\n", a.Currency)
	fmt.Fprintf(p.w, "Balance:   %s\n", a.Balance.StringFixed(2))
	fmt.Fprintf(p.w, "Overdraft: %s\n", a.OverdraftLimit.StringFixed(2))
	fmt.Fprintf(p.w, "Available: %s\n", a.Available().StringFixed(2))
	fmt.Fprintf(p.w, "Opened:    %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func (p printer) transactions(number string, txs []models.Transaction) error {
	if p.json {
		return p.encode(txs)
	}
	if len(txs) == 0 {
		p.warning("No transactions on %s", number)
		return nil
	}
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.Timestamp.Local().Format("2006-01-02 15:04"),
			string(tx.Type),
			tx.Signed().StringFixed(2),
			truncate(tx.Description, 30),
		})
	}
	t := newTable("DATE", "TYPE", "AMOUNT", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 2 && txs[row].Type == models.TypeWithdrawal:
				return debitStyle
			case col == 2:
				return creditStyle
			}
			return cellStyle
		})
	p.section("Transactions for " + number)
	fmt.Fprintln(p.w, t.String())
	return nil
}

func (p printer) profile(pr *models.Profile) error {
	if p.json {
		return p.encode(pr)
	}
	p.section(pr.FirstName + " " + pr.LastName)
	fmt.Fprintf(p.w, "Username:      %s\n", pr.Username)
	fmt.Fprintf(p.w, "Date of birth: %s\n", pr.DateOfBirth)
	fmt.Fprintf(p.w, "Address:       %s, %s, %s, %s\n", pr.Street, pr.City, pr.ZipCode, pr.Country)
	fmt.Fprintf(p.w, "Phone:         %s\n", pr.Phone)
	fmt.Fprintf(p.w, "Email:         %s\n", pr.Email)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
