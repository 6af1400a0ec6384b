package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/tui/styles"
)

// parseID parses fs around one positional id, so flags may come before or after it
func parseID(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", fmt.Errorf("usage: medbook %s [flags] <id>", fs.Name())
	}
	id := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", err
	}
	if fs.NArg() != 0 {
		return "", fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return id, nil
}

func (a *app) showAppointment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "follow status changes until interrupted")
	every := fs.Duration("every", a.cfg.Polling.UnreadInterval, "poll interval for --watch")
	id, err := parseID(fs, args)
	if err != nil {
		return err
	}

	if !*watch {
		appt, err := a.appointments.Get(ctx, id)
		if err != nil {
			return err
		}
		a.printAppointment(appt)
		return nil
	}

	var last domain.AppointmentStatus
	ob := a.appointments.ObserveDetail(id, query.RefetchInterval(*every))
	return follow(ctx, a, ob, func(appt *domain.Appointment) {
		if appt == nil || appt.Status == last {
			return
		}
		if last == "" {
			a.printAppointment(appt)
		} else {
			fmt.Fprintf(a.out, "%s %s → %s\n", time.Now().Format("15:04:05"), appt.ID, styles.RenderStatus(appt.Status))
		}
		last = appt.Status
	})
}

func (a *app) printAppointment(appt *domain.Appointment) {
	fmt.Fprintln(a.out, styles.TitleStyle.Render(fmt.Sprintf("%s %s", appt.AppointmentDate, appt.AppointmentTime)))
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", appt.ID)
	fmt.Fprintf(w, "doctor\t%s\n", doctorName(*appt))
	if appt.Patient != nil {
		fmt.Fprintf(w, "patient\t%s\n", appt.Patient.Name)
	}
	fmt.Fprintf(w, "type\t%s\n", appt.BookingType)
	fmt.Fprintf(w, "status\t%s\n", styles.RenderStatus(appt.Status))
	if appt.PaymentStatus != "" {
		fmt.Fprintf(w, "payment\t%s\n", appt.PaymentStatus)
	}
	if appt.Notes != "" {
		fmt.Fprintf(w, "notes\t%s\n", appt.Notes)
	}
	if appt.Reason != "" {
		fmt.Fprintf(w, "reason\t%s\n", appt.Reason)
	}
	_ = w.Flush()
}

func (a *app) accept(ctx context.Context, args []string) error {
	id, err := parseID(flag.NewFlagSet("accept", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	appt, err := a.appointments.Accept(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Accepted %s (%s)", appt.ID, appt.Status)))
	return nil
}

func (a *app) reject(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ContinueOnError)
	reason := fs.String("reason", "", "reason shown to the patient")
	id, err := parseID(fs, args)
	if err != nil {
		return err
	}
	appt, err := a.appointments.Reject(ctx, id, *reason)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Rejected %s (%s)", appt.ID, appt.Status)))
	return nil
}

func (a *app) updateStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	status := fs.String("status", "", "new appointment status")
	payment := fs.String("payment", "", "new payment status")
	method := fs.String("method", "", "payment method")
	notes := fs.String("notes", "", "notes")
	id, err := parseID(fs, args)
	if err != nil {
		return err
	}
	if *status == "" && *payment == "" {
		return errors.New("--status or --payment is required")
	}

	appt, err := a.appointments.UpdateStatus(ctx, id, domain.StatusUpdate{
		Status:        domain.AppointmentStatus(strings.ToUpper(*status)),
		PaymentStatus: domain.PaymentStatus(strings.ToUpper(*payment)),
		PaymentMethod: *method,
		Notes:         *notes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ %s is now %s", appt.ID, appt.Status)))
	return nil
}

func (a *app) showOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	fee := fs.Float64("shipping-fee", -1, "set the shipping fee")
	cancel := fs.Bool("cancel", false, "cancel the order")
	id, err := parseID(fs, args)
	if err != nil {
		return err
	}

	var o *domain.Order
	switch {
	case *cancel:
		o, err = a.orders.Cancel(ctx, id)
	case *fee >= 0:
		o, err = a.orders.SetShippingFee(ctx, id, *fee)
	default:
		o, err = a.orders.Get(ctx, id)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, styles.TitleStyle.Render("Order "+o.ID))
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %s\t×%d\t%.2f\n", it.Name, it.Quantity, it.Price)
	}
	fmt.Fprintf(w, "subtotal\t\t%.2f\n", o.Subtotal)
	fmt.Fprintf(w, "shipping\t\t%.2f\n", o.ShippingFee)
	fmt.Fprintf(w, "total\t\t%.2f\n", o.Total)
	fmt.Fprintf(w, "status\t\t%s / %s\n", o.Status, o.PaymentStatus)
	return w.Flush()
}

func (a *app) showProduct(ctx context.Context, args []string) error {
	id, err := parseID(flag.NewFlagSet("product", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	p, err := a.pharmacy.Product(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.TitleStyle.Render(p.Name))
	if p.Description != "" {
		fmt.Fprintln(a.out, styles.SubtitleStyle.Render(p.Description))
	}
	fmt.Fprintf(a.out, "%.2f, %d in stock\n", p.Price, p.Stock)
	return nil
}

func (a *app) buy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "quantity")
	address := fs.String("address", "", "shipping address")
	id, err := parseID(fs, args)
	if err != nil {
		return err
	}

	o, err := a.pharmacy.Purchase(ctx, []domain.OrderItem{{ProductID: id, Quantity: *qty}}, *address)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Ordered %s, run 'medbook pay %s' to pay %.2f", o.ID, o.ID, o.Total)))
	return nil
}

func (a *app) listDoctors(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctors", flag.ContinueOnError)
	search := fs.String("search", "", "name or specialty")
	category := fs.String("category", "", "specialty filter")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", domain.DefaultPageLimit, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.doctors.List(ctx, domain.ListFilter{Search: *search, Category: *category, Page: *page, Limit: *limit})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIALTY\tFEE\tRATING")
	for _, d := range result.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.1f\n", d.ID, d.Name, d.Specialty, d.Fee, d.Rating)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(a, result.Pagination)
	return nil
}

func (a *app) showDoctor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	bio := fs.String("bio", "", "update the bio")
	specialty := fs.String("specialty", "", "update the specialty")
	fee := fs.Float64("fee", 0, "update the consultation fee")
	id, err := parseID(fs, args)
	if err != nil {
		return err
	}

	var d *domain.Doctor
	update := domain.DoctorProfileUpdate{Bio: *bio, Specialty: *specialty, Fee: *fee}
	if update.Bio != "" || update.Specialty != "" || update.Fee > 0 {
		d, err = a.doctors.UpdateProfile(ctx, id, update)
	} else {
		d, err = a.doctors.Profile(ctx, id)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, styles.TitleStyle.Render(d.Name))
	fmt.Fprintln(a.out, styles.SubtitleStyle.Render(fmt.Sprintf("%s, fee %.2f, rated %.1f", d.Specialty, d.Fee, d.Rating)))
	if d.Bio != "" {
		fmt.Fprintln(a.out, d.Bio)
	}
	if len(d.AvailableDays) > 0 {
		fmt.Fprintf(a.out, "available %s %s\n", strings.Join(d.AvailableDays, ","), strings.Join(d.AvailableHours, ","))
	}
	return nil
}

func (a *app) chatCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "follow the thread until interrupted")
	text := fs.String("send", "", "send a message to the thread")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		convs, err := a.chat.Conversations(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWITH\tUNREAD\tLAST")
		for _, c := range convs {
			names := make([]string, len(c.Participants))
			for i, p := range c.Participants {
				names[i] = p.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ID, strings.Join(names, ", "), c.UnreadCount, styles.Truncate(c.LastMessage, 40))
		}
		return w.Flush()
	}

	id, err := parseID(fs, fs.Args())
	if err != nil {
		return err
	}

	if *text != "" {
		if _, err := a.chat.Send(ctx, id, *text); err != nil {
			return err
		}
	}

	if !*watch {
		msgs, err := a.chat.Messages(ctx, id)
		if err != nil {
			return err
		}
		a.printMessages(msgs)
		return nil
	}

	seen := 0
	return follow(ctx, a, a.chat.ObserveMessages(id), func(msgs []domain.ChatMessage) {
		if len(msgs) < seen {
			seen = 0
		}
		a.printMessages(msgs[seen:])
		seen = len(msgs)
	})
}

func (a *app) printMessages(msgs []domain.ChatMessage) {
	for _, m := range msgs {
		fmt.Fprintf(a.out, "%s %s  %s\n", styles.DimStyle.Render(m.CreatedAt.Format("01-02 15:04")), styles.AccentStyle.Render(m.SenderID), m.Body)
	}
}

func (a *app) adminCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: medbook admin stats|users|appointments|activate|deactivate|delete-user")
	}
	panel, args := args[0], args[1:]

	switch panel {
	case "stats":
		st, err := a.admin.Stats(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "users\t%d\n", st.Users)
		fmt.Fprintf(w, "doctors\t%d\n", st.Doctors)
		fmt.Fprintf(w, "patients\t%d\n", st.Patients)
		fmt.Fprintf(w, "appointments\t%d\n", st.Appointments)
		fmt.Fprintf(w, "orders\t%d\n", st.Orders)
		fmt.Fprintf(w, "revenue\t%.2f\n", st.Revenue)
		return w.Flush()

	case "users":
		fs := flag.NewFlagSet("admin users", flag.ContinueOnError)
		role := fs.String("role", "", "PATIENT, DOCTOR or ADMIN")
		search := fs.String("search", "", "name or email")
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", domain.DefaultPageLimit, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		result, err := a.admin.Users(ctx, domain.ListFilter{
			Role:   domain.Role(strings.ToUpper(*role)),
			Search: *search,
			Page:   *page,
			Limit:  *limit,
		})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
		for _, u := range result.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, u.Active)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		printPagination(a, result.Pagination)
		return nil

	case "appointments":
		fs := flag.NewFlagSet("admin appointments", flag.ContinueOnError)
		status := fs.String("status", "", "status filter")
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", domain.DefaultPageLimit, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		result, err := a.admin.Appointments(ctx, domain.AppointmentFilter{
			Status: domain.AppointmentStatus(strings.ToUpper(*status)),
			Page:   *page,
			Limit:  *limit,
		})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tDOCTOR\tSTATUS")
		for _, appt := range result.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", appt.ID, appt.AppointmentDate, doctorName(appt), styles.RenderStatus(appt.Status))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		printPagination(a, result.Pagination)
		return nil

	case "activate", "deactivate":
		id, err := parseID(flag.NewFlagSet("admin "+panel, flag.ContinueOnError), args)
		if err != nil {
			return err
		}
		u, err := a.admin.SetUserActive(ctx, id, panel == "activate")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ %s active=%t", u.Email, u.Active)))
		return nil

	case "delete-user":
		id, err := parseID(flag.NewFlagSet("admin delete-user", flag.ContinueOnError), args)
		if err != nil {
			return err
		}
		if err := a.admin.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, styles.SuccessStyle.Render("✓ Deleted user "+id))
		return nil
	}
	return fmt.Errorf("unknown admin panel %q", panel)
}
