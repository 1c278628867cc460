package main

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/domain/allocation"
	"sfgnexus/internal/domain/truthfile"
)

// maxParallel bounds concurrent allocations in one run.
const maxParallel = 8

func newAllocateCmd(opts *options) *cobra.Command {
	var (
		prefix string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate one or more BaseNumbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			return withAllocator(cmd, opts, func(svc *allocation.Service) error {
				results := make([]*basenumber.Allocation, count)
				g, ctx := errgroup.WithContext(cmd.Context())
				g.SetLimit(maxParallel)
				for i := range count {
					g.Go(func() error {
						a, err := svc.Allocate(ctx, prefix)
						if err != nil {
							return err
						}
						results[i] = a
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					return err
				}

				slices.SortFunc(results, func(a, b *basenumber.Allocation) int {
					return cmp.Compare(a.SequenceNumber, b.SequenceNumber)
				})
				tbl := newTable(cmd.OutOrStdout(), "Formatted", "BaseNumber", "Prefix")
				for _, a := range results {
					tbl.AddRow(a.Formatted, a.BaseNumber, a.Prefix)
				}
				tbl.Print()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "lifecycle prefix; empty means ENQ")
	cmd.Flags().IntVar(&count, "count", 1, "number of BaseNumbers to allocate")
	return cmd
}

func newCurrentCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the sequence counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAllocator(cmd, opts, func(svc *allocation.Service) error {
				seq, initialized, err := svc.Current(cmd.Context())
				if err != nil {
					return err
				}
				tbl := newTable(cmd.OutOrStdout(), "Sequence", "Current", "Initialized")
				tbl.AddRow(seq.ID, seq.CurrentNumber, initialized)
				tbl.Print()
				return nil
			})
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <identifier>",
		Short: "Split a formatted identifier such as 10001-ENQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := basenumber.Parse(args[0])
			if !ok {
				return fmt.Errorf("%q is not a formatted identifier", args[0])
			}
			tbl := newTable(cmd.OutOrStdout(), "BaseNumber", "Prefix", "Known")
			tbl.AddRow(id.BaseNumber, id.Prefix, id.Prefix.Valid())
			tbl.Print()
			return nil
		},
	}
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <base-number> <prefix>",
		Short: "Join a BaseNumber and a prefix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, err := basenumber.ParsePrefix(args[1])
			if err != nil {
				return err
			}
			formatted, err := basenumber.Format(args[0], prefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatted)
			return nil
		},
	}
}

var errInvalidRecord = errors.New("record is missing required fields")

func newValidateCmd(opts *options) *cobra.Command {
	var conversion bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a YAML or JSON record against the required fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(opts)
			if err != nil {
				return err
			}
			var fields truthfile.Fields
			if err := readDocument(args[0], &fields); err != nil {
				return err
			}

			v := truthfile.NewValidator(rules)
			result := v.ValidateRequiredFields(fields)
			if conversion {
				result = v.ValidateQuoteToOrderConversion(fields)
			}

			out := cmd.OutOrStdout()
			tbl := newTable(out, "Stage", "Valid", "Completeness", "Missing")
			tbl.AddRow(fields.Stage(), result.Valid, strconv.Itoa(v.Completeness(fields))+"%", strings.Join(result.Missing, ", "))
			tbl.Print()

			if !result.Valid {
				for _, msg := range result.Errors {
					fmt.Fprintln(out, " -", msg)
				}
				fmt.Fprintln(out, truthfile.RedAlert(result.Missing, fields))
				return errInvalidRecord
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&conversion, "conversion", false, "check the quote to order conversion gate instead")
	return cmd
}

func newPathsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "paths <file>",
		Short: "Generate the canonical and month shortcut paths for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(opts)
			if err != nil {
				return err
			}
			var job truthfile.JobPath
			if err := readDocument(args[0], &job); err != nil {
				return err
			}

			paths, err := truthfile.NewPathBuilder(rules, nil).Build(job)
			if err != nil {
				return err
			}
			tbl := newTable(cmd.OutOrStdout(), "Kind", "Path")
			tbl.AddRow("canonical", paths.Canonical)
			tbl.AddRow("month", paths.MonthShortcut)
			tbl.Print()
			return nil
		},
	}
}

func newFoldersCmd(opts *options) *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List the job folder structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(opts)
			if err != nil {
				return err
			}
			b := truthfile.NewPathBuilder(rules, nil)
			folders := b.Folders()
			if stage != "" {
				folders = b.FoldersByStage(stage)
			}
			for _, f := range folders {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "drawings, customers, contacts, approved or completed")
	return cmd
}
