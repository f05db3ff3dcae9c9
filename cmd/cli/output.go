package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"mcprice/app"
	"mcprice/domain/option"
	"mcprice/internal/errors"

	"gopkg.in/yaml.v3"
)

func validFormat(format string) bool {
	switch format {
	case "text", "json", "yaml":
		return true
	}
	return false
}

// render writes v in the requested format; text comes from the callback
func render(w io.Writer, format string, v interface{}, text func() string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		_, err := io.WriteString(w, text())
		return err
	}
	return errors.InvalidArgument("unknown format %q", format)
}

func reportText(r *app.PricingReport) string {
	var b strings.Builder
	c := r.Contract
	fmt.Fprintf(&b, "Simulations count: %d\n", c.NumPaths)
	fmt.Fprintf(&b, "Spot price:        %g\n", c.Spot)
	fmt.Fprintf(&b, "Strike price:      %g\n", c.Strike)
	fmt.Fprintf(&b, "Risk-free rate:    %g\n", c.Rate)
	fmt.Fprintf(&b, "Volatility:        %g\n", c.Volatility)
	fmt.Fprintf(&b, "Time to maturity:  %g\n", c.Maturity)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Call Price:        %.6f\n", r.Result.CallPrice)
	fmt.Fprintf(&b, "Put Price:         %.6f\n", r.Result.PutPrice)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Call std error:    %.6f\n", r.Result.CallStdErr)
	fmt.Fprintf(&b, "Put std error:     %.6f\n", r.Result.PutStdErr)
	fmt.Fprintf(&b, "Black-Scholes:     call %.6f (abs err %.6f), put %.6f (abs err %.6f)\n",
		r.Reference.Call, r.CallError(), r.Reference.Put, r.PutError())
	fmt.Fprintf(&b, "Strategy:          %s\n", r.Manifest.Strategy)
	fmt.Fprintf(&b, "Seed:              %#x\n", r.Manifest.Seed)
	fmt.Fprintf(&b, "Run:               %s (%s)\n", r.Manifest.RunID, r.Manifest.Fingerprint.Fingerprint.Short())
	fmt.Fprintf(&b, "Elapsed:           %s\n", r.Elapsed)

	if p := r.Profile; p != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Profiled paths:    %d\n", p.SampleSize)
		fmt.Fprintf(&b, "In the money:      %.2f%%\n", 100*p.InTheMoney)
		fmt.Fprintf(&b, "Call payoff:       mean %.4f, sd %.4f, median %.4f, p99 %.4f, max %.4f\n",
			p.Call.Summary.Mean, p.Call.Summary.StdDev, p.Call.Summary.Median, p.Call.Summary.P99, p.Call.Summary.Max)
		fmt.Fprintf(&b, "Put payoff:        mean %.4f, sd %.4f, median %.4f, p99 %.4f, max %.4f\n",
			p.Put.Summary.Mean, p.Put.Summary.StdDev, p.Put.Summary.Median, p.Put.Summary.P99, p.Put.Summary.Max)
		if lt := p.LogTerminal; lt != nil {
			fmt.Fprintf(&b, "log S_T:           mean %.4f (expected %.4f), sd %.4f (expected %.4f), skew %.3f\n",
				lt.Observed.Summary.Mean, lt.ExpectedMean, lt.Observed.Summary.StdDev, lt.ExpectedStdDev,
				lt.Observed.Shape.Skewness)
		}
	}
	return b.String()
}

func comparisonText(c *app.Comparison) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tCALL\tPUT\tCALL SE\tELAPSED")
	for _, r := range c.Reports {
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.6f\t%s\n",
			r.Manifest.Strategy, r.Result.CallPrice, r.Result.PutPrice, r.Result.CallStdErr, r.Elapsed)
	}
	tw.Flush()

	b.WriteString("\n")
	for _, d := range c.Diffs {
		fmt.Fprintf(&b, "%s vs %s: call %.3e, put %.3e relative\n", d.A, d.B, d.CallRel, d.PutRel)
	}
	fmt.Fprintf(&b, "max relative difference: %.3e\n", c.MaxRelativeDiff())
	return b.String()
}

func convergenceText(reference option.BlackScholesPrice, points []app.ConvergencePoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Black-Scholes: call %.6f, put %.6f\n\n", reference.Call, reference.Put)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATHS\tCALL\tCALL REL ERR\tPUT\tPUT REL ERR\tCALL SE\tELAPSED")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%.6f\t%.3e\t%.6f\t%.3e\t%.6f\t%s\n",
			p.NumPaths, p.Call, p.CallRelErr, p.Put, p.PutRelErr, p.CallStdErr, p.Elapsed)
	}
	tw.Flush()
	return b.String()
}
