package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jj82931/Cost-of-Living-saver/internal/catalog"
	"github.com/jj82931/Cost-of-Living-saver/internal/config"
	"github.com/jj82931/Cost-of-Living-saver/internal/llm"
	"github.com/jj82931/Cost-of-Living-saver/internal/logging"
	"github.com/jj82931/Cost-of-Living-saver/internal/pipeline"
	"github.com/jj82931/Cost-of-Living-saver/pkg/billing"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"github.com/jj82931/Cost-of-Living-saver/pkg/output"
	"github.com/jj82931/Cost-of-Living-saver/pkg/validation"
	"go.uber.org/zap"
)

type cliFlags struct {
	configLocation string
	bill           string
	plans          string
	limit          int
	outputFormat   string
	out            string
	logLevel       string
	explain        bool
	bills          []string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("cols", flag.ContinueOnError)
	fs.StringVar(&f.configLocation, "config", "", "path to configuration file (defaults apply when omitted)")
	fs.StringVar(&f.bill, "bill", "", "bill text file, or - for stdin; further files may follow as arguments")
	fs.StringVar(&f.plans, "plans", "", "plan catalog override (YAML or JSON)")
	fs.IntVar(&f.limit, "limit", -1, "number of ranked plans to report")
	fs.StringVar(&f.outputFormat, "output-format", "", "type of output override: pretty, csv, json, xlsx")
	fs.StringVar(&f.out, "out", "", "write output to this file instead of stdout")
	fs.StringVar(&f.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	fs.BoolVar(&f.explain, "explain", false, "ask the configured language model to explain the comparison")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	if f.bill != "" {
		f.bills = append(f.bills, f.bill)
	}
	f.bills = append(f.bills, fs.Args()...)
	if len(f.bills) == 0 {
		return f, errors.New("no bill given; use -bill <file> or -bill - for stdin")
	}
	return f, nil
}

func loadConfiguration(path string) (*config.Configuration, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfiguration(path)
}

func loadPlans(conf *config.Configuration, override string) ([]billing.Plan, error) {
	path := conf.Catalog.Path
	if override != "" {
		path = override
	}
	if path == "" {
		return catalog.LoadSample()
	}
	return catalog.Load(path)
}

func readBills(paths []string, stdin io.Reader) ([]string, error) {
	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		var data []byte
		var err error
		if p == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read bill %s: %w", p, err)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}

func writeReports(w io.Writer, format string, reports []pipeline.Report) error {
	switch format {
	case constants.OutputFormatPretty:
		for i, rep := range reports {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := output.PrettyFormat(w, rep); err != nil {
				return err
			}
		}
	case constants.OutputFormatCSV:
		for _, rep := range reports {
			if err := output.CsvFormat(w, rep); err != nil {
				return err
			}
		}
	case constants.OutputFormatJSON:
		if len(reports) == 1 {
			return output.JSONFormat(w, reports[0])
		}
		for _, rep := range reports {
			if err := output.JSONFormat(w, rep); err != nil {
				return err
			}
		}
	case constants.OutputFormatXLSX:
		if len(reports) != 1 {
			return fmt.Errorf("xlsx output takes exactly one bill, got %d", len(reports))
		}
		data, err := output.XLSX(reports[0])
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return validation.ValidateOutputFormat(format)
	}
	return nil
}

// run executes one CLI invocation. Logs go to the logger; reports go to stdout
// or the -out file.
func run(ctx context.Context, f cliFlags, conf *config.Configuration, logger *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if f.outputFormat != "" {
		outputFormat = f.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	plans, err := loadPlans(conf, f.plans)
	if err != nil {
		return fmt.Errorf("failed to load plan catalog: %w", err)
	}
	for _, warning := range catalog.Validate(plans) {
		logger.Warn("Catalog warning: "+warning,
			zap.String("op", "main"),
		)
	}

	texts, err := readBills(f.bills, stdin)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultOptions()
	opts.Limit = conf.Match.Limit
	if f.limit >= 0 {
		opts.Limit = f.limit
	}
	opts.NormalizeText = conf.Extract.NormalizeText
	opts.MinConfidence = conf.Extract.MinConfidence

	reports, err := pipeline.CompareBatch(ctx, logger, texts, plans, opts)
	if err != nil {
		return err
	}

	if f.explain {
		client := llm.NewClient(conf.LLM.ClientOptions(logger))
		for i := range reports {
			text, err := pipeline.Explain(ctx, logger, client, reports[i], conf.LLM.CacheTTL)
			if err != nil {
				if errors.Is(err, llm.ErrMissingAPIKey) {
					logger.Warn("explanation skipped: no API key configured", zap.String("op", "main"))
					break
				}
				logger.Warn("explanation failed", zap.String("op", "main"), zap.Error(err))
				continue
			}
			reports[i].Explanation = text
		}
	}

	var buf bytes.Buffer
	if err := writeReports(&buf, outputFormat, reports); err != nil {
		return err
	}

	if f.out != "" {
		if err := os.WriteFile(f.out, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.out, err)
		}
		logger.Info("report written",
			zap.String("op", "main"),
			zap.String("path", f.out),
			zap.String("format", outputFormat),
		)
		return nil
	}
	if outputFormat == constants.OutputFormatXLSX {
		return errors.New("xlsx output needs -out <file>")
	}
	_, err = stdout.Write(buf.Bytes())
	return err
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid arguments\", \"error\": %q}\n", err.Error())
		os.Exit(2)
	}

	conf, err := loadConfiguration(f.configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": %q}\n", f.configLocation, err.Error())
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, f.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, f, conf, logger, os.Stdin, os.Stdout); err != nil {
		logger.Fatal(strings.TrimSpace(err.Error()),
			zap.String("op", "main"),
		)
	}
}
