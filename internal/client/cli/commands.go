package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/client/importer"
	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/client/normalize"
	"github.com/dmitrijs2005/tourcheck/internal/client/services"
	"github.com/dmitrijs2005/tourcheck/internal/common"
	"github.com/dmitrijs2005/tourcheck/internal/filex"
)

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// argOrPrompt returns args[0] or asks for it.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) requireTour() error {
	if !a.hasTour() {
		return common.ErrNoActiveTour
	}
	return nil
}

// ---- tours ----

func (a *App) NewTour(ctx context.Context) error {
	agency, err := GetSimpleText(a.reader, "Agency", a.out)
	if err != nil {
		return err
	}
	group, err := GetSimpleText(a.reader, "Group", a.out)
	if err != nil {
		return err
	}
	date, err := GetSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", a.out)
	if err != nil {
		return err
	}

	meta, err := a.engine.CreateTour(ctx, services.NewTour{Agency: agency, Group: group, DateKey: date})
	if err != nil {
		return err
	}
	a.view = nil
	a.printf("Created %s (%s, %s)\nShare this code with the other guides: %s\n",
		meta.Code, meta.Title(), meta.DateKey, meta.Code)
	return nil
}

func (a *App) JoinTour(ctx context.Context, args []string) error {
	code, err := a.argOrPrompt(args, "Tour code")
	if err != nil {
		return err
	}
	meta, err := a.engine.JoinTour(ctx, code)
	if err != nil {
		return err
	}
	a.view = nil
	a.printf("Joined %s (%s), %d passengers\n", meta.Code, meta.Title(), len(a.engine.Passengers()))
	return nil
}

func (a *App) OpenTour(ctx context.Context, args []string) error {
	code, err := a.argOrPrompt(args, "Tour code")
	if err != nil {
		return err
	}
	meta, err := a.engine.OpenTour(ctx, code)
	if err != nil {
		return err
	}
	a.view = nil
	a.printf("Opened %s (%s), %d passengers\n", meta.Code, meta.Title(), len(a.engine.Passengers()))
	return nil
}

func (a *App) Tours(ctx context.Context) error {
	list, err := a.engine.Tours(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No tours on this device. Use 'new' or 'join <code>'.\n")
		return nil
	}
	active := a.engine.Status().Code
	for _, m := range list {
		mark := " "
		if m.Code == active {
			mark = "*"
		}
		a.printf("%s %s  %-10s  %s  %s\n", mark, m.Code, m.DateKey, m.Title(), formatTS(m.TS))
	}
	return nil
}

func (a *App) LeaveTour(ctx context.Context) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	code := a.engine.Status().Code
	a.engine.LeaveTour(ctx)
	a.view = nil
	a.printf("Left %s; it stays on this device.\n", code)
	return nil
}

func (a *App) DeleteTour(ctx context.Context, args []string) error {
	code, err := a.argOrPrompt(args, "Tour code")
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete %s from this device? The shared copy is kept.", code), a.out) {
		a.printf("Cancelled.\n")
		return nil
	}
	if err := a.engine.DeleteLocal(ctx, code); err != nil {
		return err
	}
	a.view = nil
	a.printf("Deleted %s.\n", strings.ToUpper(code))
	return nil
}

// ---- passengers ----

// listArg joins args into a list name and checks it against the configured
// names, if any.
func (a *App) listArg(ctx context.Context, args []string) (string, error) {
	list := strings.TrimSpace(strings.Join(args, " "))
	if list == "" {
		return "", nil
	}
	names := a.engine.ListNames(ctx)
	if len(names) > 0 && !slices.Contains(names, list) {
		return "", fmt.Errorf("%w: unknown list %q (known: %s)", common.ErrValidation, list, strings.Join(names, ", "))
	}
	return list, nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	list, err := a.listArg(ctx, args)
	if err != nil {
		return err
	}

	var c models.Candidate
	if c.Name, err = GetSimpleText(a.reader, "Full name", a.out); err != nil {
		return err
	}
	if c.Passport, err = GetSimpleText(a.reader, "Passport (optional)", a.out); err != nil {
		return err
	}
	if c.Phone, err = GetSimpleText(a.reader, "Phone (optional)", a.out); err != nil {
		return err
	}

	p, err := a.engine.AddPassenger(ctx, c, list)
	if err != nil {
		return err
	}
	a.view = nil
	a.printf("Added %s\n", p.Name)
	return nil
}

func (a *App) Import(ctx context.Context, args []string) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: import <file.csv|file.xlsx|file.txt> [list]", common.ErrValidation)
	}
	list, err := a.listArg(ctx, args[1:])
	if err != nil {
		return err
	}

	cs, err := readCandidates(args[0])
	if err != nil {
		return err
	}
	return a.importCandidates(ctx, cs, list)
}

func readCandidates(path string) ([]models.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return importer.ParseXLSX(f)
	case ".csv":
		return importer.ParseCSV(f)
	default:
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return importer.ParseText(string(b))
	}
}

func (a *App) Paste(ctx context.Context, args []string) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	list, err := a.listArg(ctx, args)
	if err != nil {
		return err
	}
	text, err := GetMultiline(a.reader, "Paste passengers, one per line (name, passport, phone)", a.out)
	if err != nil {
		return err
	}
	cs, err := importer.ParseText(text)
	if err != nil {
		return err
	}
	return a.importCandidates(ctx, cs, list)
}

func (a *App) importCandidates(ctx context.Context, cs []models.Candidate, list string) error {
	for i, c := range cs {
		a.printf("%3d. %s  %s  %s\n", i+1, c.Name, c.Passport, c.Phone)
	}
	if !Confirm(a.reader, fmt.Sprintf("Add %d passengers?", len(cs)), a.out) {
		a.printf("Cancelled.\n")
		return nil
	}
	n, err := a.engine.ImportCandidates(ctx, cs, list)
	if err != nil {
		return err
	}
	a.view = nil
	a.printf("Imported %d passengers.\n", n)
	return nil
}

// resolve maps a row number from the last listing, or an id (prefix), to a
// passenger.
func (a *App) resolve(ctx context.Context, args []string) (models.Passenger, error) {
	if len(args) == 0 {
		return models.Passenger{}, fmt.Errorf("%w: passenger number or id required", common.ErrValidation)
	}
	ref := args[0]

	if n, err := strconv.Atoi(ref); err == nil {
		view := a.view
		if view == nil {
			view = a.visible(ctx, "")
		}
		if n < 1 || n > len(view) {
			return models.Passenger{}, fmt.Errorf("%w: no passenger #%d", common.ErrValidation, n)
		}
		// the row may have been replaced by a remote update since it was shown
		return a.engine.Find(view[n-1].ID)
	}

	var found []models.Passenger
	for _, p := range a.engine.Passengers() {
		if string(p.ID) == ref {
			return p, nil
		}
		if strings.HasPrefix(string(p.ID), ref) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return models.Passenger{}, fmt.Errorf("%w: passenger %s", common.ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return models.Passenger{}, fmt.Errorf("%w: %q matches %d passengers", common.ErrValidation, ref, len(found))
	}
}

func (a *App) Check(ctx context.Context, args []string) error {
	p, err := a.resolve(ctx, args)
	if err != nil {
		return err
	}
	if err := a.engine.ToggleChecked(ctx, p.ID); err != nil {
		return err
	}
	if p.Checked {
		a.printf("%s is back on the list.\n", p.Label())
	} else {
		a.printf("%s checked out.\n", p.Label())
	}
	return nil
}

func (a *App) Visa(ctx context.Context, args []string) error {
	p, err := a.resolve(ctx, args)
	if err != nil {
		return err
	}
	if err := a.engine.ToggleVisa(ctx, p.ID); err != nil {
		return err
	}
	a.printf("%s visa: %s\n", p.Label(), onOff(!p.VisaFlag))
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	p, err := a.resolve(ctx, args)
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Remove %s?", p.Label()), a.out) {
		a.printf("Cancelled.\n")
		return nil
	}
	if err := a.engine.RemovePassenger(ctx, p.ID); err != nil {
		return err
	}
	a.view = nil
	a.printf("Removed %s.\n", p.Label())
	return nil
}

// visible applies the search query and the hide-checked preference.
func (a *App) visible(ctx context.Context, query string) []models.Passenger {
	list := a.engine.Search(query)
	if !a.engine.Hidden(ctx) {
		return list
	}
	out := list[:0]
	for _, p := range list {
		if !p.Checked {
			out = append(out, p)
		}
	}
	return out
}

func (a *App) List(ctx context.Context, args []string) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	query := strings.Join(args, " ")
	a.view = a.visible(ctx, query)

	for i, p := range a.view {
		mark := " "
		if p.Checked {
			mark = "x"
		}
		line := fmt.Sprintf("%3d. [%s] %s", i+1, mark, p.Label())
		if p.Passport != "" {
			line += "  " + p.Passport
		}
		if p.Phone != "" {
			line += "  " + p.Phone
		}
		if p.VisaFlag {
			line += "  VISA"
		}
		if p.List != "" {
			line += "  (" + p.List + ")"
		}
		a.printf("%s\n", line)
	}

	total := len(a.engine.Passengers())
	switch {
	case total == 0:
		a.printf("The list is empty. Use 'add', 'paste' or 'import'.\n")
	case len(a.view) != total:
		a.printf("%d of %d shown\n", len(a.view), total)
	}
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	a.printStats(a.engine.Status().Stats)
	return nil
}

func (a *App) printStats(s normalize.Stats) {
	a.printf("Total %d  Checked %d  Remaining %d  Visa %d\n", s.Total, s.Checked, s.Remaining, s.Visa)
}

// ---- preferences ----

func (a *App) Hide(ctx context.Context, args []string) error {
	hidden := !a.engine.Hidden(ctx)
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on", "yes", "true":
			hidden = true
		case "off", "no", "false":
			hidden = false
		default:
			return fmt.Errorf("%w: usage: hide [on|off]", common.ErrValidation)
		}
	}
	if err := a.engine.SetHidden(ctx, hidden); err != nil {
		return err
	}
	a.view = nil
	a.printf("Hide checked-out passengers: %s\n", onOff(hidden))
	return nil
}

func (a *App) Lists(ctx context.Context, args []string) error {
	if len(args) == 0 {
		names := a.engine.ListNames(ctx)
		if len(names) == 0 {
			a.printf("No list names configured. Set them with 'lists Bus 1, Bus 2'.\n")
			return nil
		}
		a.printf("Lists: %s\n", strings.Join(names, ", "))
		return nil
	}

	var names []string
	for _, n := range strings.Split(strings.Join(args, " "), ",") {
		n = strings.TrimSpace(n)
		if n != "" && n != "-" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	if err := a.engine.SetListNames(ctx, names); err != nil {
		return err
	}
	if len(names) == 0 {
		a.printf("List names cleared.\n")
	} else {
		a.printf("Lists: %s\n", strings.Join(names, ", "))
	}
	return nil
}

// ---- export & status ----

func (a *App) Export(ctx context.Context, args []string) error {
	if err := a.requireTour(); err != nil {
		return err
	}
	st := a.engine.Status()
	path := st.Code + ".xlsx"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := importer.WriteXLSX(f, st.Meta, a.engine.Passengers()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.printf("Exported %d passengers to %s\n", st.Stats.Total, path)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.engine.Status()
	if a.watcher != nil {
		a.printf("Connection: %s\n", a.watcher.Mode())
	}
	if st.State == services.StateUnloaded {
		a.printf("No active tour.\n")
		return nil
	}
	a.printf("Tour %s  %s  %s\n", st.Code, st.Meta.Title(), st.Meta.DateKey)
	a.printf("Sync: %s, last change %s\n", st.State, formatTS(st.TS))
	a.printStats(st.Stats)
	return nil
}

func formatTS(ts int64) string {
	if ts <= 0 {
		return "never"
	}
	return time.UnixMilli(ts).Local().Format("2006-01-02 15:04:05")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// describe turns an engine error into a line for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrNoActiveTour):
		return "no active tour; use 'new', 'join <code>' or 'open <code>'"
	case services.IsValidation(err):
		return err.Error()
	case errors.Is(err, common.ErrNotFound):
		return err.Error()
	default:
		return "failed: " + err.Error()
	}
}
