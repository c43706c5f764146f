package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

// Exit codes of the integrity command.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitWarnings = 10
)

type integrityRunner interface {
	Run(ctx context.Context, payload jobs.GLIntegrityPayload) ([]jobs.IntegrityResult, error)
}

// IntegrityCLI runs the GL integrity check in-process.
type IntegrityCLI struct {
	job integrityRunner
}

// NewIntegrityCLI wraps a configured integrity job.
func NewIntegrityCLI(job integrityRunner) *IntegrityCLI {
	return &IntegrityCLI{job: job}
}

// IntegrityOptions defines available flags for the integrity check command.
type IntegrityOptions struct {
	Companies  string
	AsOf       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// IntegritySummary is the JSON document printed with --json.
type IntegritySummary struct {
	OK        bool               `json:"ok"`
	Companies []CompanyIntegrity `json:"companies"`
}

// CompanyIntegrity reports one company.
type CompanyIntegrity struct {
	CompanyID int64                     `json:"company_id"`
	AsOf      string                    `json:"as_of"`
	Warnings  []shared.IntegrityWarning `json:"warnings"`
}

// CheckCommand executes the check and prints the outcome. It returns
// ExitWarnings when any company is out of balance.
func (c *IntegrityCLI) CheckCommand(ctx context.Context, opts IntegrityOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	ids, err := ParseCompanyIDs(opts.Companies)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "integrity check: %v\n", err)
		return ExitError
	}
	if opts.AsOf != "" {
		if _, err := shared.ParseDate(opts.AsOf); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "integrity check: invalid --as-of %q (expected YYYY-MM-DD)\n", opts.AsOf)
			return ExitError
		}
	}
	results, err := c.job.Run(ctx, jobs.GLIntegrityPayload{CompanyIDs: ids, AsOf: opts.AsOf})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "integrity check: %v\n", err)
		return ExitError
	}
	summary := buildIntegritySummary(results)
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "integrity check: encode json: %v\n", err)
			return ExitError
		}
	} else {
		renderIntegrityHuman(opts.Stdout, summary)
	}
	if !summary.OK {
		return ExitWarnings
	}
	return ExitOK
}

// ParseCompanyIDs reads a comma separated id list. Empty input means all companies.
func ParseCompanyIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid company id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildIntegritySummary(results []jobs.IntegrityResult) IntegritySummary {
	summary := IntegritySummary{OK: true, Companies: make([]CompanyIntegrity, 0, len(results))}
	for _, r := range results {
		warnings := r.Warnings
		if warnings == nil {
			warnings = []shared.IntegrityWarning{}
		}
		if len(warnings) > 0 {
			summary.OK = false
		}
		summary.Companies = append(summary.Companies, CompanyIntegrity{
			CompanyID: r.CompanyID,
			AsOf:      shared.FormatDate(r.AsOf),
			Warnings:  warnings,
		})
	}
	return summary
}

func renderIntegrityHuman(w io.Writer, summary IntegritySummary) {
	if len(summary.Companies) == 0 {
		_, _ = fmt.Fprintln(w, "No companies checked.")
		return
	}
	for _, c := range summary.Companies {
		if len(c.Warnings) == 0 {
			_, _ = fmt.Fprintf(w, "company %d as of %s: balanced\n", c.CompanyID, c.AsOf)
			continue
		}
		_, _ = fmt.Fprintf(w, "company %d as of %s: %d warning(s)\n", c.CompanyID, c.AsOf, len(c.Warnings))
		for _, warn := range c.Warnings {
			_, _ = fmt.Fprintf(w, "  [%s] %s expected=%s actual=%s diff=%s\n",
				warn.Severity, warn.Check,
				shared.FormatAmount(warn.Expected),
				shared.FormatAmount(warn.Actual),
				shared.FormatAmount(warn.Difference))
		}
	}
}
