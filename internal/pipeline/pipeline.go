// Package pipeline runs a bill through extraction, plan matching and
// summarizing, and optionally asks a language model to explain the outcome.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jj82931/Cost-of-Living-saver/internal/llm"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/extract"
	"github.com/jj82931/Cost-of-Living-saver/pkg/match"
	"github.com/jj82931/Cost-of-Living-saver/pkg/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds CompareBatch when Options.Concurrency is unset.
const DefaultConcurrency = 4

// Options control a comparison run.
type Options struct {
	Limit         int
	NormalizeText bool
	// MinConfidence is the extraction confidence below which a warning is
	// logged and the report is flagged.
	MinConfidence float64
	Concurrency   int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Limit:         constants.DefaultMatchLimit,
		MinConfidence: constants.DefaultMinConfidence,
		Concurrency:   DefaultConcurrency,
	}
}

// PlanCost is one ranked plan with its name and cost breakdown.
type PlanCost struct {
	Rank        int      `json:"rank"`
	PlanID      string   `json:"planId"`
	Name        string   `json:"name"`
	AnnualCost  float64  `json:"annualCost"`
	Supply      float64  `json:"supply"`
	Usage       float64  `json:"usage"`
	Credits     float64  `json:"credits"`
	Assumptions []string `json:"assumptions"`
}

// Report is everything produced for one bill.
type Report struct {
	Bill              billing.ElectricityBillExtract `json:"bill"`
	DocType           extract.DocType                `json:"docType"`
	Fields            []string                       `json:"fields"`
	Results           []billing.ComparisonResult     `json:"results"`
	Plans             []PlanCost                     `json:"plans"`
	Summary           report.Summary                 `json:"summary"`
	LowConfidence     bool                           `json:"lowConfidence,omitempty"`
	LowConfidenceSpan bool                           `json:"lowConfidenceSpan,omitempty"`
	Explanation       string                         `json:"explanation,omitempty"`
}

// Compare extracts the bill in text, ranks plans against it and summarizes
// the result. It never fails; unreadable text yields an empty bill.
func Compare(logger *zap.Logger, text string, plans []billing.Plan, opts Options) Report {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.NormalizeText {
		text = extract.NormalizeText(text)
	}
	docType := extract.DetectDocType(text)
	extraction := extract.Recognize(text)
	bill := extraction.Bill

	logger.Debug("bill extracted",
		zap.String("op", "pipeline.Compare"),
		zap.String("docType", string(docType)),
		zap.Strings("fields", extraction.Fields),
		zap.Float64("confidence", bill.Confidence),
	)

	ranked := match.Rank(bill, plans, opts.Limit)
	results := make([]billing.ComparisonResult, len(ranked))
	costs := make([]PlanCost, len(ranked))
	lowSpan := false
	for i, r := range ranked {
		results[i] = r.ComparisonResult
		name := r.PlanID
		if plan, ok := billing.FindPlan(plans, r.PlanID); ok {
			name = plan.Name
		}
		costs[i] = PlanCost{
			Rank:        i + 1,
			PlanID:      r.PlanID,
			Name:        name,
			AnnualCost:  r.AnnualCost,
			Supply:      r.Simulation.Breakdown.Supply,
			Usage:       r.Simulation.Breakdown.Usage,
			Credits:     r.Simulation.Breakdown.Credits,
			Assumptions: r.Assumptions,
		}
		lowSpan = lowSpan || r.Simulation.LowConfidenceSpan
	}

	rep := Report{
		Bill:              bill,
		DocType:           docType,
		Fields:            extraction.Fields,
		Results:           results,
		Plans:             costs,
		Summary:           report.Summarize(bill, plans, results),
		LowConfidence:     bill.Confidence < opts.MinConfidence,
		LowConfidenceSpan: lowSpan,
	}

	if rep.LowConfidence {
		logger.Warn("low extraction confidence",
			zap.String("op", "pipeline.Compare"),
			zap.Float64("confidence", bill.Confidence),
			zap.Float64("minConfidence", opts.MinConfidence),
		)
	}
	if rep.LowConfidenceSpan {
		logger.Warn("billing period unreadable; annual costs assume a one day bill",
			zap.String("op", "pipeline.Compare"),
		)
	}
	logger.Debug("comparison complete",
		zap.String("op", "pipeline.Compare"),
		zap.Int("plans", len(plans)),
		zap.Int("results", len(results)),
		zap.String("headline", rep.Summary.Headline),
	)

	return rep
}

// CompareBatch runs Compare for every text in parallel, bounded by
// opts.Concurrency. Reports are returned in input order. Cancelling ctx stops
// work that has not started.
func CompareBatch(ctx context.Context, logger *zap.Logger, texts []string, plans []billing.Plan, opts Options) ([]Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	reports := make([]Report, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = Compare(logger.With(zap.Int("bill", i)), text, plans, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch comparison cancelled: %w", err)
	}
	return reports, nil
}

// TextGenerator produces completions. *llm.Client satisfies it.
type TextGenerator interface {
	GenerateText(ctx context.Context, req llm.Request) (llm.Response, error)
}

const explainSystemPrompt = "You help households compare electricity plans. " +
	"Explain the comparison below in plain language in at most five sentences. " +
	"Mention the cheapest plan, the estimated yearly saving if one is given, and any assumptions that affect accuracy. " +
	"Do not invent figures."

// Explain asks gen for a short plain-language narrative of rep. Responses
// are memoized for cacheTTL.
func Explain(ctx context.Context, logger *zap.Logger, gen TextGenerator, rep Report, cacheTTL time.Duration) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resp, err := gen.GenerateText(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: explainSystemPrompt},
			{Role: "user", Content: describe(rep)},
		},
		CacheTTL: cacheTTL,
	})
	if err != nil {
		return "", fmt.Errorf("explain comparison: %w", err)
	}

	logger.Debug("explanation generated",
		zap.String("op", "pipeline.Explain"),
		zap.String("model", resp.Model),
		zap.Bool("cached", resp.Cached),
	)
	return strings.TrimSpace(resp.Text), nil
}

// describe renders the facts of a report as prompt text.
func describe(rep Report) string {
	var b strings.Builder
	b.WriteString(rep.Summary.Headline)
	b.WriteString("\n")
	for _, d := range rep.Summary.Details {
		b.WriteString(d)
		b.WriteString("\n")
	}
	if rep.Summary.Best != nil && rep.Summary.Best.SavingsVsBill != nil {
		fmt.Fprintf(&b, "Difference between the bill total and the best annual estimate: $%.2f\n", *rep.Summary.Best.SavingsVsBill)
	}
	if len(rep.Plans) > 0 {
		b.WriteString("Ranked plans:\n")
		for _, p := range rep.Plans {
			fmt.Fprintf(&b, "%d. %s: $%.2f/yr\n", p.Rank, p.Name, p.AnnualCost)
		}
	}
	if len(rep.Summary.Assumptions) > 0 {
		b.WriteString("Assumptions:\n")
		for _, a := range rep.Summary.Assumptions {
			b.WriteString("- ")
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "Extraction confidence: %.2f\n", rep.Bill.Confidence)
	return b.String()
}
