package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gymdash/internal/adapters/remote"
	"gymdash/internal/application/catalog"
	"gymdash/internal/application/listutil"
	"gymdash/internal/application/listview"
	"gymdash/internal/application/mutation"
	"gymdash/internal/application/projections"
	"gymdash/internal/config"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/payment"
	"gymdash/internal/logger"
)

var errUsage = errors.New("usage")

// cli holds the process streams and remote defaults for one invocation.
type cli struct {
	remote config.RemoteConfig
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	client *remote.Client
	logger *zap.Logger
}

// run parses global flags, dispatches to a command and returns the exit code.
func (c *cli) run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("gymctl", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.SetInterspersed(false)
	baseURL := fs.String("url", c.remote.BaseURL, "dashboard base URL")
	token := fs.String("token", c.remote.Token, "API bearer token (see POST /api/token)")
	timeout := fs.Duration("timeout", c.remote.Timeout, "request timeout")
	verbose := fs.BoolP("verbose", "v", false, "log every request")
	fs.Usage = func() { c.usage(fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	c.logger = logger.New(level, "console")
	defer c.logger.Sync() //nolint:errcheck

	opts := []remote.Option{remote.WithLogger(c.logger), remote.WithBearerToken(*token)}
	if *timeout > 0 {
		opts = append(opts, remote.WithTimeout(*timeout))
	}
	client, err := remote.New(*baseURL, opts...)
	if err != nil {
		fmt.Fprintln(c.stderr, "gymctl:", err)
		return 2
	}
	c.client = client

	rest := fs.Args()
	if len(rest) == 0 {
		c.usage(fs)
		return 2
	}
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "list":
		err = c.list(ctx, cmdArgs)
	case "delete":
		err = c.delete(ctx, cmdArgs)
	case "checkin":
		err = c.checkIn(ctx, cmdArgs)
	case "checkout":
		err = c.checkOut(ctx, cmdArgs)
	case "dashboard":
		err = c.dashboard(ctx, cmdArgs)
	case "help":
		c.usage(fs)
		return 0
	default:
		fmt.Fprintf(c.stderr, "gymctl: unknown command %q\n", cmd)
		c.usage(fs)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, pflag.ErrHelp):
		return 2
	case errors.Is(err, errReported):
		return 1
	default:
		fmt.Fprintln(c.stderr, "gymctl:", err)
		return 1
	}
}

func (c *cli) usage(fs *pflag.FlagSet) {
	fmt.Fprintln(c.stderr, "usage: gymctl [flags] <list|delete|checkin|checkout|dashboard> [args]")
	fmt.Fprintln(c.stderr, "kinds: "+strings.Join(kindNames(), ", "))
	fs.PrintDefaults()
}

func (c *cli) usageError(format string, args ...any) error {
	fmt.Fprintf(c.stderr, "gymctl: "+format+"\n", args...)
	return errUsage
}

func kindNames() []string {
	names := make([]string, len(entity.All))
	for i, k := range entity.All {
		names[i] = k.String()
	}
	return names
}

func (c *cli) parseKind(arg string) (entity.Kind, error) {
	k, err := entity.ParseKind(arg)
	if err != nil {
		return "", c.usageError("%v (want one of %s)", err, strings.Join(kindNames(), ", "))
	}
	return k, nil
}

// notifier prints mutation notices the way a toast would show them.
func (c *cli) notifier() mutation.Notifier {
	return mutation.NotifierFunc(func(n mutation.Notice) {
		fmt.Fprintf(c.stderr, "[%s] %s\n", n.Level, n.Message)
	})
}

// listOptions are the list command's flags, shaped like a list page query.
type listOptions struct {
	params listutil.ListParams
	format string
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	query := fs.StringP("query", "q", "", "free-text search")
	status := fs.String("status", "", "exact status filter")
	sortKey := fs.String("sort", "", "column to sort by")
	dir := fs.String("dir", "asc", "sort direction: asc or desc")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 0, "rows per page (0 shows every row)")
	format := fs.String("format", "table", "output format: table or csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return c.usageError("list takes exactly one kind")
	}
	kind, err := c.parseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	if *format != "table" && *format != "csv" {
		return c.usageError("unknown format %q (want table or csv)", *format)
	}

	q := url.Values{"q": {*query}, "status": {*status}, "sort": {*sortKey}, "dir": {*dir}}
	k := commandsFor(kind)
	p := listutil.ListParams{
		SortParams:   listutil.ParseSortParams(q, k.sortKeys()),
		FilterParams: listutil.ParseFilterParams(q, []string{"status"}),
		PageParams:   listutil.PageParams{Page: max(*page, 1), PerPage: *perPage},
	}
	if *sortKey != "" && p.Sort == "" {
		return c.usageError("%s cannot be sorted by %q (want one of %s)", kind, *sortKey, strings.Join(k.sortKeys(), ", "))
	}
	return k.list(ctx, c, listOptions{params: p, format: *format})
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return c.usageError("delete takes a kind and an id")
	}
	kind, err := c.parseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	if !kind.Deletable() {
		return fmt.Errorf("%s records cannot be deleted", kind)
	}
	return commandsFor(kind).delete(ctx, c, fs.Arg(1), *yes)
}

// confirm asks on stdin. Anything but y or yes declines.
func (c *cli) confirm(prompt string) bool {
	fmt.Fprintf(c.stdout, "%s [y/N] ", prompt)
	sc := bufio.NewScanner(c.stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}

func (c *cli) checkIn(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("checkin", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	method := fs.StringP("method", "m", checkin.MethodManual, "check-in method: "+strings.Join(checkin.ValidMethods, ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return c.usageError("checkin takes a member id")
	}
	if !slices.Contains(checkin.ValidMethods, *method) {
		return c.usageError("unknown method %q", *method)
	}
	body := map[string]string{"member_id": fs.Arg(0), "method": *method}
	return c.submitCheckIn(ctx, "check in", http.MethodPost, "/api/checkins", body)
}

func (c *cli) checkOut(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("checkout", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return c.usageError("checkout takes a member id")
	}
	body := map[string]string{"member_id": fs.Arg(0)}
	return c.submitCheckIn(ctx, "check out", http.MethodPost, "/api/checkins/checkout", body)
}

// submitCheckIn runs one check-in mutation through a view over the
// check-in collection so the list is re-fetched after it lands.
func (c *cli) submitCheckIn(ctx context.Context, op, method, path string, body any) error {
	view := mutation.NewView(ctx, mutation.Config[checkin.CheckIn]{
		Fetch: func(ctx context.Context) ([]checkin.CheckIn, error) {
			return remote.List[checkin.CheckIn](ctx, c.client, entity.KindCheckIns)
		},
		Describe: remote.Describe,
		Notifier: c.notifier(),
		Logger:   c.logger,
	})
	defer view.Close()

	var rec checkin.CheckIn
	err := view.Submit(ctx, op, func(ctx context.Context) error {
		return c.client.Do(ctx, method, path, body, &rec)
	})
	if err != nil {
		return errReported
	}
	open := 0
	for _, ci := range view.Collection().Items {
		if ci.Status == checkin.StatusActive {
			open++
		}
	}
	fmt.Fprintf(c.stdout, "%s: member %s (%s at %s)\n", op, rec.MemberID, rec.Method, rec.CheckInTime.Format("15:04"))
	fmt.Fprintf(c.stdout, "%d member(s) currently checked in\n", open)
	return nil
}

// errReported marks failures whose notice was already printed.
var errReported = errors.New("failed")

func (c *cli) dashboard(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return c.usageError("dashboard takes no arguments")
	}
	var d projections.Dashboard
	if err := c.client.Do(ctx, http.MethodGet, "/api/dashboard", nil, &d); err != nil {
		return errors.New(remote.Describe("dashboard", err))
	}
	return writeDashboard(c.stdout, d)
}

func writeDashboard(w io.Writer, d projections.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	scope := d.FranchiseID
	if scope == "" {
		scope = "all franchises"
	}
	fmt.Fprintf(tw, "Scope\t%s\n", scope)
	fmt.Fprintf(tw, "Members\t%d active / %d total\n", d.ActiveMembers, d.TotalMembers)
	fmt.Fprintf(tw, "Check-ins today\t%d (%d in now)\n", d.TodayCheckIns, d.CurrentlyIn)
	fmt.Fprintf(tw, "Revenue this month\t%s\n", payment.FormatCents(d.Revenue.ThisMonth))
	fmt.Fprintf(tw, "Revenue last month\t%s\n", payment.FormatCents(d.Revenue.LastMonth))
	fmt.Fprintf(tw, "Growth\t%.1f%%\n", d.Revenue.Growth)
	fmt.Fprintf(tw, "Payments\t%d pending, %d overdue\n", d.PendingPayments, d.OverduePayments)
	fmt.Fprintf(tw, "Stock\t%d low, %d out\n", d.LowStock, d.OutOfStock)
	fmt.Fprintf(tw, "Upcoming events\t%d\n", d.UpcomingEvents)
	for _, k := range sortedKeys(d.RevenueByType) {
		fmt.Fprintf(tw, "  revenue/%s\t%s\n", k, payment.FormatCents(d.RevenueByType[k]))
	}
	for _, k := range sortedKeys(d.RoomUtilization) {
		fmt.Fprintf(tw, "  room/%s\t%.0f%%\n", k, d.RoomUtilization[k])
	}
	for _, k := range sortedKeys(d.TrainerUtilization) {
		fmt.Fprintf(tw, "  trainer/%s\t%.0f%%\n", k, d.TrainerUtilization[k])
	}
	fmt.Fprintf(tw, "Generated\t%s\n", d.GeneratedAt.Format("2006-01-02 15:04"))
	return tw.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// kindCommands runs the generic list and delete commands for one kind.
type kindCommands interface {
	sortKeys() []string
	list(ctx context.Context, c *cli, opts listOptions) error
	delete(ctx context.Context, c *cli, id string, yes bool) error
}

func commandsFor(k entity.Kind) kindCommands {
	switch k {
	case entity.KindMembers:
		return typed(catalog.Members())
	case entity.KindTrainers:
		return typed(catalog.Trainers())
	case entity.KindCheckIns:
		return typed(catalog.CheckIns())
	case entity.KindPayments:
		return typed(catalog.Payments())
	case entity.KindProducts:
		return typed(catalog.Products())
	case entity.KindSales:
		return typed(catalog.Sales())
	case entity.KindScheduleEvents:
		return typed(catalog.ScheduleEvents())
	case entity.KindAccessLogs:
		return typed(catalog.AccessLogs())
	default:
		return typed(catalog.Franchises())
	}
}

type typedCommands[T any] struct {
	spec catalog.Spec[T]
}

func typed[T any](spec catalog.Spec[T]) kindCommands { return typedCommands[T]{spec: spec} }

func (t typedCommands[T]) sortKeys() []string { return t.spec.Table.SortKeys() }

func (t typedCommands[T]) view(ctx context.Context, c *cli) *mutation.View[T] {
	return mutation.NewView(ctx, mutation.Config[T]{
		Fetch: func(ctx context.Context) ([]T, error) {
			return remote.List[T](ctx, c.client, t.spec.Kind)
		},
		Delete: func(ctx context.Context, id string) error {
			return remote.Delete(ctx, c.client, t.spec.Kind, id)
		},
		Describe: remote.Describe,
		Notifier: c.notifier(),
		Logger:   c.logger,
	})
}

func (t typedCommands[T]) list(ctx context.Context, c *cli, opts listOptions) error {
	v := t.view(ctx, c)
	defer v.Close()
	if err := v.Refresh(ctx); err != nil {
		return errReported
	}

	p := opts.params
	items := listview.Filter(v.Collection().Items, p.Search, t.spec.Fields...)
	if status := p.Filters["status"]; status != "" && t.spec.Status != nil {
		items = listview.Where(items, func(it T) bool { return t.spec.Status(it) == status })
	}
	if opts.format == "csv" {
		return listview.WriteCSV(c.stdout, t.spec.Table, t.spec.Table.Sort(items, p.Sort, p.Dir))
	}
	if p.PerPage <= 0 {
		p.PerPage = max(len(items), 1)
	}
	return listview.RenderText(c.stdout, t.spec.Table.View(t.spec.Kind.Title(), items, p))
}

func (t typedCommands[T]) delete(ctx context.Context, c *cli, id string, yes bool) error {
	v := t.view(ctx, c)
	defer v.Close()

	if err := v.RequestDelete(id); err != nil {
		return err
	}
	if !yes && !c.confirm(fmt.Sprintf("Delete %s %s?", t.spec.Kind, id)) {
		if err := v.Cancel(); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "cancelled")
		return nil
	}
	if err := v.Confirm(ctx); err != nil {
		return errReported
	}
	fmt.Fprintf(c.stdout, "deleted %s %s\n", t.spec.Kind, id)
	return nil
}
