package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/desk"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/presenter"
)

type command func(ctx context.Context, a *app, args []string) int

var commands = map[string]command{
	"list":    listCmd,
	"summary": summaryCmd,
	"show":    showCmd,
	"history": historyCmd,
	"create":  createCmd,
	"submit":  transitionCmd(workflow.TriggerSubmit),
	"approve": transitionCmd(workflow.TriggerApprove),
	"reject":  transitionCmd(workflow.TriggerReject),
	"pay":     transitionCmd(workflow.TriggerPay),
	"delete":  transitionCmd(workflow.TriggerDelete),
	"doctors": doctorsCmd,
	"export":  exportCmd,
}

// filterFlags registers the listing filters on fs
type filterFlags struct {
	voucherType *string
	status      *string
	doctorID    *string
	dateFrom    *string
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		voucherType: fs.String("type", "", "voucher type, e.g. DOCTOR_PAYMENT"),
		status:      fs.String("status", "", "status, e.g. PENDING_APPROVAL"),
		doctorID:    fs.String("doctor", "", "doctor id, e.g. DR001"),
		dateFrom:    fs.String("from", "", "earliest voucher date, YYYY-MM-DD"),
	}
}

func (f filterFlags) filter() (entity.VoucherFilter, error) {
	from, err := entity.ParseOptionalDate(*f.dateFrom)
	if err != nil {
		return entity.VoucherFilter{}, err
	}
	return entity.VoucherFilter{
		VoucherType: entity.VoucherType(enumValue(*f.voucherType)),
		Status:      workflow.State(enumValue(*f.status)),
		DoctorID:    strings.TrimSpace(*f.doctorID),
		DateFrom:    from,
	}, nil
}

// enumValue accepts "pending-approval" for PENDING_APPROVAL
func enumValue(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func listCmd(ctx context.Context, a *app, args []string) int {
	fs := newFlagSet(a, "list")
	filters := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	filter, err := filters.filter()
	if err != nil {
		return a.fail(err)
	}

	vouchers, err := a.desk.Store().List(ctx, filter)
	if err != nil {
		return a.fail(err)
	}
	if len(vouchers) == 0 {
		fmt.Fprintln(a.out, "No vouchers found")
		return exitOK
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tTYPE\tSTATUS\tDATE\tDOCTOR\tAMOUNT\tACTIONS")
	for _, v := range vouchers {
		row := presenter.Row(v)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ID, row.Number, row.Type, row.Status, row.Date, row.Doctor, row.Amount, row.Actions)
	}
	return a.flush(w)
}

func summaryCmd(ctx context.Context, a *app, args []string) int {
	summary, err := a.desk.Store().Summary(ctx)
	if err != nil {
		return a.fail(err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, line := range presenter.Summary(summary) {
		fmt.Fprintf(w, "%s\t%s\n", line.Label, line.Value)
	}
	return a.flush(w)
}

func showCmd(ctx context.Context, a *app, args []string) int {
	id, code := a.voucherArg(ctx, "show", args)
	if code != exitOK {
		return code
	}

	v, err := a.client.GetVoucher(ctx, id)
	if err != nil {
		return a.fail(err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Voucher\t%s\n", v.VoucherNumber)
	fmt.Fprintf(w, "Type\t%s\n", presenter.TypeLabel(v.VoucherType))
	fmt.Fprintf(w, "Status\t%s\n", presenter.StatusLabel(v.Status))
	fmt.Fprintf(w, "Amount\t%s\n", presenter.Amount(v.Amount))
	fmt.Fprintf(w, "Date\t%s\n", presenter.Date(v.VoucherDate))
	if v.IsDoctorPayment() {
		fmt.Fprintf(w, "Doctor\t%s\n", presenter.Doctor(v))
		if period := presenter.Period(v.PaymentPeriodStart, v.PaymentPeriodEnd); period != "" {
			fmt.Fprintf(w, "Period\t%s\n", period)
		}
	}
	if v.Description != "" {
		fmt.Fprintf(w, "Description\t%s\n", v.Description)
	}
	fmt.Fprintf(w, "Created\t%s\t%s\n", presenter.Timestamp(&v.CreatedAt, nil), v.CreatedBy)
	if v.ApprovedAt != nil {
		fmt.Fprintf(w, "Approved\t%s\t%s\n", presenter.Timestamp(v.ApprovedAt, nil), v.ApprovedBy)
	}
	if v.PaidAt != nil {
		fmt.Fprintf(w, "Paid\t%s\n", presenter.Timestamp(v.PaidAt, nil))
	}
	fmt.Fprintf(w, "Actions\t%s\n", presenter.ActionHint(v.Status))
	return a.flush(w)
}

func historyCmd(ctx context.Context, a *app, args []string) int {
	id, code := a.voucherArg(ctx, "history", args)
	if code != exitOK {
		return code
	}

	entries, err := a.client.VoucherHistory(ctx, id)
	if err != nil {
		return a.fail(err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tFROM\tTO\tBY")
	for _, h := range entries {
		from := "-"
		if h.FromStatus != "" {
			from = presenter.StatusLabel(h.FromStatus)
		}
		actor := h.Actor
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			presenter.Timestamp(&h.CreatedAt, nil), h.Action, from, presenter.StatusLabel(h.ToStatus), actor)
	}
	return a.flush(w)
}

func createCmd(ctx context.Context, a *app, args []string) int {
	fs := newFlagSet(a, "create")
	voucherType := fs.String("type", "", "DOCTOR_PAYMENT, HOSPITAL_EXPENSE or ADJUSTMENT")
	amount := fs.String("amount", "", "amount, e.g. 1500.00")
	date := fs.String("date", "", "voucher date, YYYY-MM-DD (default today)")
	description := fs.String("desc", "", "description")
	doctorID := fs.String("doctor", "", "doctor id for doctor payments")
	periodStart := fs.String("period-start", "", "payment period start, YYYY-MM-DD")
	periodEnd := fs.String("period-end", "", "payment period end, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	notice := a.desk.Run(ctx, func(ctx context.Context) (string, error) {
		draft, err := buildDraft(*voucherType, *amount, *date, *description, *doctorID, *periodStart, *periodEnd)
		if err != nil {
			return "", err
		}
		number, err := a.desk.Create(ctx, draft)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Voucher %s created", number), nil
	})
	return a.report(notice)
}

// buildDraft checks the type before the amount so errors come in the same
// order the service reports them
func buildDraft(voucherType, amount, date, description, doctorID, periodStart, periodEnd string) (entity.VoucherDraft, error) {
	draft := entity.VoucherDraft{
		VoucherType: entity.VoucherType(enumValue(voucherType)),
		Description: description,
		DoctorID:    strings.TrimSpace(doctorID),
	}
	if !draft.VoucherType.IsValid() {
		return draft, fmt.Errorf("%w: %q", entity.ErrInvalidType, voucherType)
	}

	var err error
	if draft.Amount, err = entity.ParseAmount(amount); err != nil {
		return draft, err
	}
	if date != "" {
		if draft.VoucherDate, err = entity.ParseDate(date); err != nil {
			return draft, err
		}
	}
	if draft.PaymentPeriodStart, err = entity.ParseOptionalDate(periodStart); err != nil {
		return draft, err
	}
	if draft.PaymentPeriodEnd, err = entity.ParseOptionalDate(periodEnd); err != nil {
		return draft, err
	}
	return draft, nil
}

func transitionCmd(trigger workflow.Trigger) command {
	return func(ctx context.Context, a *app, args []string) int {
		id, code := a.voucherArg(ctx, trigger.Verb(), args)
		if code != exitOK {
			return code
		}

		notice := a.desk.Run(ctx, func(ctx context.Context) (string, error) {
			return a.desk.Perform(ctx, id, trigger)
		})
		return a.report(notice)
	}
}

func doctorsCmd(ctx context.Context, a *app, args []string) int {
	doctors, err := a.client.ListDoctors(ctx)
	if err != nil {
		return a.fail(err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIALIZATION\tCONSULTATION\tSTATUS")
	for _, d := range doctors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.DoctorID, d.Name, d.Specialization, presenter.Amount(d.ConsultationCharges), d.Status)
	}
	return a.flush(w)
}

func exportCmd(ctx context.Context, a *app, args []string) int {
	fs := newFlagSet(a, "export")
	output := fs.String("o", "", "output file (default vouchers-YYYYMMDD.xlsx)")
	filters := addFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	filter, err := filters.filter()
	if err != nil {
		return a.fail(err)
	}

	data, err := a.client.ExportVouchers(ctx, filter)
	if err != nil {
		return a.fail(err)
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("vouchers-%s.xlsx", time.Now().Format("20060102"))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(a.errOut, "error: %v\n", err)
		return exitError
	}

	fmt.Fprintf(a.out, "Voucher register written to %s\n", path)
	return exitOK
}

// voucherArg resolves the single <id|number> argument of a command
func (a *app) voucherArg(ctx context.Context, name string, args []string) (int64, int) {
	if len(args) != 1 {
		fmt.Fprintf(a.errOut, "usage: voucherctl %s <id|number>\n", name)
		return 0, exitUsage
	}

	if id, err := strconv.ParseInt(args[0], 10, 64); err == nil && id > 0 {
		return id, exitOK
	}

	number := strings.ToUpper(strings.TrimSpace(args[0]))
	vouchers, err := a.client.ListVouchers(ctx, entity.VoucherFilter{})
	if err != nil {
		return 0, a.fail(err)
	}
	for _, v := range vouchers {
		if v.VoucherNumber == number {
			return v.ID, exitOK
		}
	}
	return 0, a.fail(fmt.Errorf("voucher %s: %w", number, entity.ErrNotFound))
}

// fail prints the notice for a failed read command
func (a *app) fail(err error) int {
	a.logger.Debug("Command failed", zap.Error(err))
	return a.report(desk.NoticeFor(err))
}

func (a *app) report(notice desk.Notice) int {
	if notice.Level == desk.LevelSuccess {
		fmt.Fprintln(a.out, notice.Message)
		return exitOK
	}
	fmt.Fprintf(a.errOut, "%s: %s\n", notice.Level, notice.Message)
	return exitError
}

func (a *app) flush(w *tabwriter.Writer) int {
	if err := w.Flush(); err != nil {
		fmt.Fprintf(a.errOut, "error: %v\n", err)
		return exitError
	}
	return exitOK
}
