package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nholik/flash-sentinel/internal/check"
	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/section"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	var inventory bool
	cmd := &cobra.Command{
		Use:   "check [ITEM...]",
		Short: "Evaluate agent output the way the monitoring host does",
		Long: `check reads agent output on stdin. Without items it lists every
discovered item. With items it prints each result and exits with the
worst state (0 OK, 1 WARN, 2 CRIT, 3 UNKNOWN).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := section.Parse(cmd.InOrStdin())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if inventory {
				return printInventory(out, blocks)
			}
			results, err := resultsSection(blocks)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for _, item := range check.Discover(results) {
					fmt.Fprintln(out, item)
				}
				return nil
			}
			state := printItems(out, results, args)
			if state != health.StateOK {
				return &exitError{code: int(state)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inventory, "inventory", false, "print the inventory section as JSON lines")
	return cmd
}

func resultsSection(blocks []section.Block) (section.Results, error) {
	for _, block := range blocks {
		if section.IsResults(block.ID) {
			return check.Parse(block.Payload)
		}
	}
	return nil, errors.New("no results section in input")
}

func printItems(w io.Writer, results section.Results, items []string) health.State {
	var states []health.State
	for _, item := range items {
		eval := check.Evaluate(results, item)
		if eval.Empty() {
			fmt.Fprintf(w, "%s: %s - item not found\n", item, health.StateUnknown)
			states = append(states, health.StateUnknown)
			continue
		}
		perf := make([]string, 0, len(eval.Metrics))
		for _, m := range eval.Metrics {
			perf = append(perf, m.String())
		}
		suffix := ""
		if len(perf) > 0 {
			suffix = " | " + strings.Join(perf, " ")
		}
		if len(eval.Results) == 0 {
			fmt.Fprintf(w, "%s: %s%s\n", item, health.StateOK, suffix)
		}
		for _, r := range eval.Results {
			fmt.Fprintf(w, "%s: %s%s\n", item, r, suffix)
		}
		states = append(states, eval.State())
	}
	return health.Worst(states...)
}

func printInventory(w io.Writer, blocks []section.Block) error {
	for _, block := range blocks {
		if !section.IsInventory(block.ID) {
			continue
		}
		inv, err := check.ParseInventory(block.Payload)
		if err != nil {
			return err
		}
		attrs, rows := check.Inventory(inv)
		enc := json.NewEncoder(w)
		for _, a := range attrs {
			if err := enc.Encode(a); err != nil {
				return err
			}
		}
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New("no inventory section in input")
}
