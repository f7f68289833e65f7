package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "group":
		return a.sub(ctx, args[1:], map[string]func(context.Context, []string) error{
			"create": a.groupCreate,
			"join":   a.groupJoin,
		})
	case "member":
		return a.sub(ctx, args[1:], map[string]func(context.Context, []string) error{
			"add":  a.memberAdd,
			"list": a.memberList,
		})
	case "bill":
		return a.sub(ctx, args[1:], map[string]func(context.Context, []string) error{
			"add":  a.billAdd,
			"paid": a.billPaid,
		})
	case "settle":
		return a.settle(ctx, args[1:])
	case "watch":
		return a.watch(ctx, args[1:])
	default:
		return errUsage
	}
}

func (a *app) sub(ctx context.Context, args []string, cmds map[string]func(context.Context, []string) error) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		return errUsage
	}
	return cmd(ctx, args[1:])
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) groupCreate(ctx context.Context, args []string) error {
	fs := newFlagSet("group create")
	name := fs.String("name", "", "group name")
	creator := fs.String("creator", "", "creator's display name")
	currency := fs.String("currency", "", "display currency code")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	group, member, err := a.groups.CreateGroup(ctx, *name, *desc, *currency, *creator)
	if err != nil {
		return err
	}
	fmt.Printf("group %s (%s) invite code %s\n", group.ID, group.Name, group.InviteCode)
	fmt.Printf("member %s (%s)\n", member.ID, member.Name)
	return nil
}

func (a *app) groupJoin(ctx context.Context, args []string) error {
	fs := newFlagSet("group join")
	code := fs.String("code", "", "invite code")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	group, member, err := a.groups.JoinGroup(ctx, *code, *name)
	if err != nil {
		return err
	}
	fmt.Printf("member %s (%s) joined %s\n", member.ID, member.Name, group.Name)
	return nil
}

func (a *app) memberAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("member add")
	groupID := fs.String("group", "", "group ID")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	member, err := a.groups.AddParticipant(ctx, *groupID, *name)
	if err != nil {
		return err
	}
	fmt.Printf("member %s (%s)\n", member.ID, member.Name)
	return nil
}

func (a *app) memberList(ctx context.Context, args []string) error {
	fs := newFlagSet("member list")
	groupID := fs.String("group", "", "group ID")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	members, err := a.groups.ListParticipants(ctx, *groupID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, m := range members {
		fmt.Fprintf(w, "%s\t%s\n", m.ID, m.Name)
	}
	return w.Flush()
}

func (a *app) billAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("bill add")
	groupID := fs.String("group", "", "group ID")
	payer := fs.String("payer", "", "payer participant ID")
	desc := fs.String("desc", "", "description")
	amount := fs.Float64("amount", 0, "amount paid")
	owe := fs.String("owe", "", "comma-separated participant IDs sharing the bill")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	bill, shares, err := a.bills.AddBill(ctx, *groupID, *payer, *desc, *amount, splitList(*owe))
	if err != nil {
		return err
	}
	fmt.Printf("bill %s (%s) %.2f split %d ways\n", bill.ID, bill.Description, bill.Amount, len(shares))
	return nil
}

func (a *app) billPaid(ctx context.Context, args []string) error {
	fs := newFlagSet("bill paid")
	billID := fs.String("bill", "", "bill ID")
	participant := fs.String("participant", "", "participant ID")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return a.bills.MarkSharePaid(ctx, *billID, *participant)
}

func (a *app) settle(ctx context.Context, args []string) error {
	fs := newFlagSet("settle")
	groupID := fs.String("group", "", "group ID")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	result, err := a.settlements.SettleGroup(ctx, *groupID)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(os.Stdout, result)
	}
	return writeTable(os.Stdout, result)
}

// watch re-settles a group on an interval, serving metrics when configured.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	groupID := fs.String("group", "", "group ID")
	every := fs.Duration("every", time.Minute, "interval between runs")
	if err := fs.Parse(args); err != nil || *every <= 0 {
		return errUsage
	}

	if a.cfg.MetricsAddr != "" {
		go serveMetrics(ctx, a.cfg.MetricsAddr)
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		result, err := a.settlements.SettleGroup(ctx, *groupID)
		if err != nil {
			slog.Error("Scheduled settlement failed", "group_id", *groupID, "error", err)
		} else if !result.Settled() {
			slog.Warn("Scheduled settlement incomplete", "group_id", *groupID, "error", result.Incomplete)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
