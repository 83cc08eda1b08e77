package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"expense-records/internal/models"
	"expense-records/internal/service"
	"expense-records/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// errQuit ends the menu loop, either on request or at end of input.
var errQuit = errors.New("quit")

type menu struct {
	svc         *service.ExpenseService
	identity    storage.Identity
	requireDate bool
	in          *bufio.Scanner
	out         io.Writer
	log         zerolog.Logger
}

func (m *menu) loop(ctx context.Context) error {
	for {
		fmt.Fprintln(m.out, "\nExpense Tracker")
		fmt.Fprintln(m.out, "1. Add Expense")
		fmt.Fprintln(m.out, "2. View Expenses")
		fmt.Fprintln(m.out, "3. Update Expense")
		fmt.Fprintln(m.out, "4. Delete Expense")
		fmt.Fprintln(m.out, "5. Exit")

		choice, err := m.prompt("Choose an option: ")
		if err != nil {
			return m.finish(err)
		}

		switch choice {
		case "1":
			err = m.add(ctx)
		case "2":
			err = m.view(ctx)
		case "3":
			err = m.update(ctx)
		case "4":
			err = m.delete(ctx)
		case "5":
			err = errQuit
		default:
			fmt.Fprintln(m.out, "Invalid option. Please try again.")
		}
		if err != nil {
			return m.finish(err)
		}
	}
}

func (m *menu) finish(err error) error {
	if errors.Is(err, errQuit) {
		fmt.Fprintln(m.out, "Exiting...")
		return nil
	}
	return err
}

// prompt prints label and reads one trimmed line.
func (m *menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *menu) add(ctx context.Context) error {
	var e models.Expense
	var err error

	if e.Description, err = m.prompt("Enter description: "); err != nil {
		return err
	}
	raw, err := m.prompt("Enter amount: ")
	if err != nil {
		return err
	}
	if e.Amount, err = decimal.NewFromString(raw); err != nil {
		fmt.Fprintf(m.out, "Invalid amount %q.\n", raw)
		return nil
	}
	category, err := m.prompt("Enter category (optional): ")
	if err != nil {
		return err
	}
	e.Category = models.StringPtr(category)

	label := "Enter date (YYYY-MM-DD, blank for today): "
	if !m.requireDate {
		label = "Enter date (YYYY-MM-DD, optional): "
	}
	raw, err = m.prompt(label)
	if err != nil {
		return err
	}
	switch {
	case raw == "" && m.requireDate:
		e.Date = models.DatePtr(models.Today())
	case raw == "":
	default:
		d, err := models.ParseDate(raw)
		if err != nil {
			fmt.Fprintf(m.out, "Invalid date %q.\n", raw)
			return nil
		}
		e.Date = &d
	}

	created, err := m.svc.Create(ctx, e)
	if err != nil {
		return m.report("add", err)
	}
	if m.identity == storage.IdentitySurrogate {
		fmt.Fprintf(m.out, "Expense added successfully with ID %d!\n", created.ID)
	} else {
		fmt.Fprintln(m.out, "Expense added successfully!")
	}
	return nil
}

func (m *menu) view(ctx context.Context) error {
	expenses, err := m.svc.List(ctx)
	if err != nil {
		return m.report("list", err)
	}
	m.printTable(expenses)
	return nil
}

func (m *menu) printTable(expenses []models.Expense) {
	fmt.Fprintln(m.out, "\nExpenses:")
	if len(expenses) == 0 {
		fmt.Fprintln(m.out, "No expenses recorded.")
		return
	}

	w := tabwriter.NewWriter(m.out, 0, 0, 2, ' ', 0)
	key := "#"
	if m.identity == storage.IdentitySurrogate {
		key = "ID"
	}
	fmt.Fprintf(w, "%s\tDATE\tDESCRIPTION\tCATEGORY\tAMOUNT\n", key)
	for i, e := range expenses {
		n := int64(i + 1)
		if m.identity == storage.IdentitySurrogate {
			n = e.ID
		}
		date := ""
		if e.Date != nil {
			date = e.Date.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n, date, e.Description, e.CategoryOrEmpty(), e.Amount.StringFixed(models.AmountPlaces))
	}
	w.Flush()
}

// choose asks which expense to act on and returns it with its match criteria.
// found is false when nothing was selected.
func (m *menu) choose(ctx context.Context, verb string) (e models.Expense, match storage.Criteria, found bool, err error) {
	if m.identity == storage.IdentitySurrogate {
		raw, err := m.prompt(fmt.Sprintf("Enter the ID of the expense to %s: ", verb))
		if err != nil {
			return e, match, false, err
		}
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || id <= 0 {
			fmt.Fprintln(m.out, "Expense not found!")
			return e, match, false, nil
		}
		e, ok, err := m.svc.FindByID(ctx, id)
		if err != nil {
			return e, match, false, m.report("find", err)
		}
		if !ok {
			fmt.Fprintln(m.out, "Expense not found!")
			return e, match, false, nil
		}
		return e, storage.ByID(id), true, nil
	}

	expenses, err := m.svc.List(ctx)
	if err != nil {
		return e, match, false, m.report("list", err)
	}
	m.printTable(expenses)
	if len(expenses) == 0 {
		return e, match, false, nil
	}
	raw, err := m.prompt(fmt.Sprintf("Enter the number of the expense to %s: ", verb))
	if err != nil {
		return e, match, false, err
	}
	n, perr := strconv.Atoi(raw)
	if perr != nil || n < 1 || n > len(expenses) {
		fmt.Fprintln(m.out, "Expense not found!")
		return e, match, false, nil
	}
	e = expenses[n-1]
	return e, storage.ByNaturalKey(e), true, nil
}

func (m *menu) update(ctx context.Context) error {
	current, match, found, err := m.choose(ctx, "update")
	if err != nil || !found {
		return err
	}

	changed := current
	raw, err := m.prompt("Enter new description (leave blank to keep current): ")
	if err != nil {
		return err
	}
	if raw != "" {
		changed.Description = raw
	}

	raw, err = m.prompt("Enter new amount (leave blank to keep current): ")
	if err != nil {
		return err
	}
	if raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Fprintf(m.out, "Invalid amount %q.\n", raw)
			return nil
		}
		changed.Amount = amount
	}

	raw, err = m.prompt("Enter new category (leave blank to keep current, - to clear): ")
	if err != nil {
		return err
	}
	switch raw {
	case "":
	case "-":
		changed.Category = nil
	default:
		changed.Category = models.StringPtr(raw)
	}

	raw, err = m.prompt("Enter new date (YYYY-MM-DD, leave blank to keep current): ")
	if err != nil {
		return err
	}
	if raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			fmt.Fprintf(m.out, "Invalid date %q.\n", raw)
			return nil
		}
		changed.Date = &d
	}

	n, err := m.svc.Update(ctx, changed, match)
	if err != nil {
		return m.report("update", err)
	}
	if n == 0 {
		fmt.Fprintln(m.out, "Expense not found!")
		return nil
	}
	fmt.Fprintln(m.out, "Expense updated successfully!")
	return nil
}

func (m *menu) delete(ctx context.Context) error {
	_, match, found, err := m.choose(ctx, "delete")
	if err != nil || !found {
		return err
	}

	n, err := m.svc.Delete(ctx, match)
	if err != nil {
		return m.report("delete", err)
	}
	if n == 0 {
		fmt.Fprintln(m.out, "Expense not found!")
		return nil
	}
	fmt.Fprintln(m.out, "Expense deleted successfully!")
	return nil
}

// report shows a failed action to the user. Input problems keep the menu
// running; storage failures end it.
func (m *menu) report(action string, err error) error {
	switch {
	case errors.Is(err, storage.ErrValidation), errors.Is(err, storage.ErrInvalidCriteria):
		fmt.Fprintf(m.out, "Could not %s expense: %v\n", action, err)
		return nil
	case errors.Is(err, storage.ErrMatchCount):
		fmt.Fprintln(m.out, "That expense matches more than one record (or none); nothing was changed.")
		return nil
	default:
		m.log.Error().Err(err).Str("action", action).Msg("expense store failure")
		return err
	}
}
