package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/sbom/spdx"
)

func newSBOMCmd() *cobra.Command {
	var dsn, id, file, env, org, ns string
	cmd := &cobra.Command{
		Use:   "sbom (--datastore DSN --report ID | --file FILE [--environment DIR])",
		Short: "Write the post-upgrade package set of an environment as SPDX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var r *upgradeplan.PlanReport
			switch {
			case dsn != "":
				rid, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("bad report ID: %w", err)
				}
				s, err := openStore(ctx, dsn)
				if err != nil {
					return fail(ctx, "unable to open datastore", err)
				}
				defer s.Close(ctx)
				r, err = s.GetReport(ctx, rid)
				if err != nil {
					return err
				}
			case file != "":
				var err error
				r, err = reportFromFile(file, env)
				if err != nil {
					return err
				}
			default:
				return errors.New("one of --datastore or --file is required")
			}
			var opts []spdx.Option
			if org != "" {
				opts = append(opts, spdx.WithCreator("Organization", org))
			}
			if ns != "" {
				opts = append(opts, spdx.WithNamespace(ns))
			}
			e := spdx.NewDefaultEncoder(opts...)
			return e.Encode(ctx, cmd.OutOrStdout(), r)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&dsn, "datastore", "", "read the report from this database")
	fs.StringVar(&id, "report", "", "ID of the report to read")
	fs.StringVar(&file, "file", "", `read the report from output of "plan"`)
	fs.StringVar(&env, "environment", "", "environment to pick from the file; the first if empty")
	fs.StringVar(&org, "organization", "", "add an organization creator to the document")
	fs.StringVar(&ns, "namespace", "", "document namespace; made from the report ID if empty")
	cmd.MarkFlagsMutuallyExclusive("datastore", "file")
	cmd.MarkFlagsRequiredTogether("datastore", "report")
	return cmd
}

// ReportFromFile picks the report for an environment out of the JSON written
// by the plan command.
func reportFromFile(name, env string) (*upgradeplan.PlanReport, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rs []*upgradeplan.PlanReport
	if err := json.NewDecoder(f).Decode(&rs); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for _, r := range rs {
		if env == "" || r.Environment == env {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%s: no report for environment %q", name, env)
}
