package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/medbook/internal/appointment"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/tui"
	"github.com/mmcdole/medbook/internal/tui/styles"
)

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds, err := promptCredentials(*email)
	if err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Signed in as %s (%s)", user.Name, user.Role)))
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}

	creds, err := promptCredentials(*email)
	if err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, domain.Registration{
		Name:     strings.TrimSpace(*name),
		Email:    creds.Email,
		Password: creds.Password,
		Phone:    *phone,
		Role:     domain.RolePatient,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render("✓ Account created for "+user.Email))
	return nil
}

func (a *app) refresh(ctx context.Context) error {
	if err := a.auth.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render("✓ Session renewed"))
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> %s\n", styles.TitleStyle.Render(user.Name), user.Email, user.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) listAppointments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("appointments", flag.ContinueOnError)
	tabName := fs.String("tab", "upcoming", "upcoming, cancelled or completed")
	patient := fs.String("patient", "", "list one patient's appointments")
	doctor := fs.String("doctor", "", "list one doctor's schedule")
	status := fs.String("status", "", "status filter for --patient and --doctor")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", domain.DefaultPageLimit, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := domain.AppointmentFilter{
		Status: domain.AppointmentStatus(strings.ToUpper(*status)),
		Page:   *page,
		Limit:  *limit,
	}

	var (
		title  string
		result appointment.Page
		err    error
	)
	switch {
	case *patient != "":
		title = "Patient " + *patient
		result, err = a.appointments.ForPatient(ctx, *patient, filter)
	case *doctor != "":
		title = "Doctor " + *doctor
		result, err = a.appointments.ForDoctor(ctx, *doctor, filter)
	default:
		tab, ok := appointment.ParseTab(*tabName)
		if !ok {
			return fmt.Errorf("unknown tab %q", *tabName)
		}
		title = tab.String()
		result, err = a.appointments.Tab(ctx, tab, *page, *limit)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, styles.TitleStyle.Render(title))
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tDOCTOR\tTYPE\tSTATUS")
	for _, appt := range result.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", appt.ID, appt.AppointmentDate, appt.AppointmentTime, doctorName(appt), appt.BookingType, styles.RenderStatus(appt.Status))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(a, result.Pagination)
	return nil
}

func doctorName(appt domain.Appointment) string {
	if appt.Doctor != nil {
		return appt.Doctor.Name
	}
	return appt.DoctorID
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	doctor := fs.String("doctor", "", "doctor id")
	date := fs.String("date", "", "appointment date (YYYY-MM-DD)")
	at := fs.String("time", "", "appointment time (HH:MM)")
	kind := fs.String("type", string(domain.BookingVisit), "VISIT or ONLINE")
	notes := fs.String("notes", "", "notes for the doctor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	appt, err := a.appointments.Create(ctx, domain.CreateAppointmentInput{
		DoctorID:        *doctor,
		AppointmentDate: *date,
		AppointmentTime: *at,
		BookingType:     domain.BookingType(strings.ToUpper(*kind)),
		Notes:           *notes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Booked %s on %s (%s)", appt.ID, appt.AppointmentDate, appt.Status)))
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	reason := fs.String("reason", "", "reason for cancelling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: medbook cancel [--reason text] <id>")
	}

	appt, err := a.appointments.Cancel(ctx, fs.Arg(0), *reason)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render("✓ Cancelled "+appt.ID))
	return nil
}

func (a *app) listNotifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "follow the unread count until interrupted")
	read := fs.String("read", "", "mark one notification read")
	readAll := fs.Bool("read-all", false, "mark every notification read")
	del := fs.String("delete", "", "delete one notification")
	limit := fs.Int("limit", domain.DefaultPageLimit, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *watch:
		return a.watchUnread(ctx)
	case *read != "":
		if err := a.notifications.MarkRead(ctx, *read); err != nil {
			return err
		}
	case *readAll:
		if err := a.notifications.MarkAllRead(ctx); err != nil {
			return err
		}
	case *del != "":
		if err := a.notifications.Delete(ctx, *del); err != nil {
			return err
		}
	}

	result, err := a.notifications.List(ctx, 1, *limit)
	if err != nil {
		return err
	}
	for _, n := range result.Items {
		marker := styles.AccentStyle.Render("●")
		if n.Read {
			marker = " "
		}
		fmt.Fprintf(a.out, "%s %s  %s\n", marker, styles.TitleStyle.Render(n.Title), styles.SubtitleStyle.Render(n.Message))
	}
	if len(result.Items) == 0 {
		fmt.Fprintln(a.out, styles.DimStyle.Render("No notifications"))
	}
	return nil
}

// watchUnread prints the unread count each time the polled observer reports a change
func (a *app) watchUnread(ctx context.Context) error {
	last := -1
	return follow(ctx, a, a.notifications.ObserveUnread(), func(n int) {
		if n != last {
			last = n
			fmt.Fprintf(a.out, "unread: %d\n", n)
		}
	})
}

// follow hands the observer's data to render after every change until ctx is
// done. The observer is closed on return. A rejected session ends the loop.
func follow[T any](ctx context.Context, a *app, ob *query.Observer[T], render func(T)) error {
	defer ob.Close()

	lastErr := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ob.Updates():
			if !ok {
				return nil
			}
			state := ob.State()
			if state.Err != nil {
				if errors.Is(state.Err, domain.ErrUnauthorized) {
					return state.Err
				}
				if msg := domain.UserMessage(state.Err); msg != lastErr {
					lastErr = msg
					fmt.Fprintln(a.out, styles.ErrorStyle.Render(msg))
				}
				continue
			}
			lastErr = ""
			if state.HasData {
				render(state.Data)
			}
		}
	}
}

func (a *app) listOrders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", domain.DefaultPageLimit, "page size")
	status := fs.String("status", "", "filter by order status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.orders.List(ctx, domain.OrderFilter{
		Status: domain.OrderStatus(strings.ToUpper(*status)),
		Page:   *page,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tITEMS\tTOTAL\tSTATUS\tPAYMENT")
	for _, o := range result.Items {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\n", o.ID, len(o.Items), o.Total, o.Status, o.PaymentStatus)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(a, result.Pagination)
	return nil
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ContinueOnError)
	method := fs.String("method", "CARD", "payment method")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: medbook pay [--method CARD] <id>")
	}

	o, err := a.orders.Pay(ctx, fs.Arg(0), *method)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Paid order %s (%.2f)", o.ID, o.Total)))
	return nil
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	category := fs.String("category", "", "filter by category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var items []domain.Product
	if term := strings.Join(fs.Args(), " "); term != "" {
		found, err := a.pharmacy.Search(ctx, term)
		if err != nil {
			return err
		}
		items = found
	} else {
		result, err := a.pharmacy.Products(ctx, domain.ListFilter{Category: *category})
		if err != nil {
			return err
		}
		items = result.Items
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}
	return w.Flush()
}

func (a *app) runTUI() error {
	if !a.auth.Session().IsAuthenticated() {
		return errors.New("not signed in, run 'medbook login'")
	}

	model := tui.NewModel(a.appointments, a.notifications, domain.DefaultPageLimit)
	unread := model.WatchUnread()
	defer unread.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	a.program.Store(p)
	defer a.program.Store(nil)

	a.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	a.logger.Info("shutting down")
	return nil
}

func printPagination(a *app, p domain.Pagination) {
	fmt.Fprintln(a.out, styles.DimStyle.Render(fmt.Sprintf("page %d of %d, %d total", p.Page, max(p.Pages, 1), p.Total)))
}
