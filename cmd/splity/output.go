package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mmynk/splity/internal/service"
)

type balanceJSON struct {
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	Paid          float64 `json:"paid"`
	Owed          float64 `json:"owed"`
	Net           float64 `json:"net"`
}

type transferJSON struct {
	From   string  `json:"from"`
	FromID string  `json:"from_id"`
	Amount float64 `json:"amount"`
	To     string  `json:"to"`
	ToID   string  `json:"to_id"`
}

type settlementJSON struct {
	GroupID   string             `json:"group_id"`
	Currency  string             `json:"currency"`
	Balances  []balanceJSON      `json:"balances"`
	Transfers []transferJSON     `json:"transfers"`
	Settled   bool               `json:"settled"`
	Residual  map[string]float64 `json:"residual,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
}

func writeJSON(w io.Writer, result *service.GroupSettlement) error {
	out := settlementJSON{
		GroupID:   result.Group.ID,
		Currency:  result.Group.Currency,
		Balances:  make([]balanceJSON, len(result.Balances)),
		Transfers: make([]transferJSON, len(result.Transfers)),
		Settled:   result.Settled(),
	}
	for i, b := range result.Balances {
		out.Balances[i] = balanceJSON(b)
	}
	for i, t := range result.Transfers {
		out.Transfers[i] = transferJSON{
			From: t.DebtorName, FromID: t.DebtorID,
			Amount: t.Amount,
			To:     t.CreditorName, ToID: t.CreditorID,
		}
	}
	if result.Incomplete != nil {
		out.Residual = make(map[string]float64, len(result.Incomplete.Residual))
		for id, bal := range result.Incomplete.Residual {
			out.Residual[id] = bal.Net
		}
	}
	if result.Inconsistent != nil {
		out.Warnings = append(out.Warnings, result.Inconsistent.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, result *service.GroupSettlement) error {
	cur := result.Group.Currency
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "%s\t\t\t\t\n", result.Group.Name)
	fmt.Fprintln(tw, "NAME\tPAID\tOWED\tNET\t")
	for _, b := range result.Balances {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%+.2f\t\n", b.Name, b.Paid, b.Owed, b.Net)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(result.Transfers) == 0 {
		fmt.Fprintln(w, "Nothing to settle.")
	}
	for _, t := range result.Transfers {
		fmt.Fprintf(w, "%s pays %.2f %s to %s\n", t.DebtorName, t.Amount, cur, t.CreditorName)
	}

	if result.Inconsistent != nil {
		fmt.Fprintf(w, "\nwarning: %v\n", result.Inconsistent)
	}
	if result.Incomplete != nil {
		fmt.Fprintf(w, "\nwarning: %v\n", result.Incomplete)
	}
	return nil
}
