package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iota-uz/utils/fs"
	"github.com/spf13/cobra"

	"github.com/myscheduling/seedload/modules/staffing/aggregate"
	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/modules/staffing/infrastructure/persistence"
	"github.com/myscheduling/seedload/modules/staffing/ingest"
	"github.com/myscheduling/seedload/modules/staffing/reconcile"
	"github.com/myscheduling/seedload/modules/staffing/seed"
	"github.com/myscheduling/seedload/modules/staffing/services"
	"github.com/myscheduling/seedload/pkg/configuration"
	"github.com/myscheduling/seedload/pkg/textutil"
)

const maxSummaryErrorBytes = 2000

type loadOptions struct {
	path        string
	sheet       string
	dryRun      bool
	strict      bool
	output      string
	manifest    string
	metricsFile string
}

func newLoadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load [path]",
		Short: "Reconcile the workbook into the database in one transaction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.path = args[0]
			}

			cfg, err := configuration.Load(configuration.DefaultEnvFiles)
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer cfg.Unload()

			return runLoad(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "excel-path", "", "Input workbook or CSV (default: SEEDLOAD_EXCEL_PATH)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet holding the rows (default: SEEDLOAD_SHEET)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Reconcile against an empty in-memory store; never connect to the database")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail and roll back when a manager, assignment or fact does not resolve")
	cmd.Flags().StringVar(&opts.output, "output", outputText, "Summary format: text|json")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Write the run report as JSON to this file")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics (default: METRICS_TEXTFILE)")
	return cmd
}

func runLoad(ctx context.Context, cfg *configuration.Configuration, stdout, stderr io.Writer, opts loadOptions) error {
	opts.output = strings.ToLower(strings.TrimSpace(opts.output))
	if opts.output != outputText && opts.output != outputJSON {
		return withCode(exitUsage, fmt.Errorf("unsupported --output: %s", opts.output))
	}
	if strings.TrimSpace(opts.path) == "" {
		opts.path = cfg.Input.ExcelPath
	}
	if strings.TrimSpace(opts.sheet) == "" {
		opts.sheet = cfg.Input.SheetName
	}
	if opts.metricsFile == "" {
		opts.metricsFile = cfg.MetricsTextfile
	}
	if !fs.FileExists(opts.path) {
		return withCode(exitUsage, fmt.Errorf("Excel file not found: %s", opts.path))
	}

	// Progress lines share stdout with the text summary; JSON output keeps
	// stdout to the single summary line.
	progress := stdout
	if opts.output == outputJSON {
		progress = stderr
	}

	log := cfg.Logger()
	svc := services.NewLoadService(log,
		ingest.Options{Sheet: opts.sheet, ActiveToken: cfg.Tenant.ActiveFlagToken},
		aggregate.NewResolver(
			aggregate.WithEmailDomain(cfg.Tenant.EmailDomain),
			aggregate.WithRootManager(cfg.Tenant.RootManagerName),
		),
	)

	fmt.Fprintf(progress, "Reading data from %s ...\n", opts.path)
	ds, err := svc.Build(opts.path)
	if err != nil {
		if is(err, domain.ErrUnsupportedFormat) {
			return withCode(exitUsage, err)
		}
		return withCode(exitValidation, err)
	}
	printCounts(progress, ds.Counts())

	gateway, closeFn, err := openGateway(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	startedAt := time.Now()
	report, runErr := svc.Reconcile(ctx, gateway, ds, reconcile.Options{
		TenantName: cfg.Tenant.Name,
		Admin: &seed.Admin{
			Email:       cfg.Admin.Email,
			DisplayName: cfg.Admin.DisplayName,
			Password:    cfg.Admin.Password,
			JobTitle:    cfg.Admin.JobTitle,
			Department:  cfg.Admin.Department,
		},
		Strict: opts.strict,
	})
	elapsed := time.Since(startedAt)

	status := statusCommitted
	switch {
	case runErr != nil:
		status = statusRolledBack
		fmt.Fprintf(progress, "Error, rolled back: %v\n", runErr)
	case opts.dryRun:
		status = statusDryRun
		fmt.Fprintln(progress, "Dry run complete; nothing was written.")
	default:
		fmt.Fprintln(progress, "Data load complete.")
	}

	summary := loadSummary{Status: status, Input: opts.path, Sheet: opts.sheet, Report: report}
	if runErr != nil {
		summary.Error = textutil.TruncateError(runErr, maxSummaryErrorBytes)
	}

	// A failed manifest or metrics write never hides a rolled back run.
	var sideErr error
	if opts.manifest != "" {
		if err := writeJSONFile(opts.manifest, summary); err != nil {
			sideErr = err
		}
	}
	if opts.metricsFile != "" {
		if err := writeRunMetrics(opts.metricsFile, report, runErr, elapsed); err != nil && sideErr == nil {
			sideErr = err
		}
	}

	switch opts.output {
	case outputJSON:
		if err := writeJSONLine(stdout, summary); err != nil && sideErr == nil {
			sideErr = err
		}
	default:
		if report != nil && runErr == nil {
			printReportTable(stdout, status, report)
		}
	}

	if runErr != nil {
		if sideErr != nil {
			fmt.Fprintf(stderr, "warning: %v\n", sideErr)
		}
		return withCode(reconcileExitCode(runErr), runErr)
	}
	return sideErr
}

func openGateway(ctx context.Context, cfg *configuration.Configuration, opts loadOptions) (domain.Gateway, func(), error) {
	if opts.dryRun {
		return persistence.NewMemoryStore(), func() {}, nil
	}

	dbOpts, err := cfg.Database()
	if err != nil {
		return nil, nil, withCode(exitUsage, err)
	}
	pool, err := connectDB(ctx, dbOpts)
	if err != nil {
		return nil, nil, withCode(exitDB, err)
	}
	store := persistence.NewPgStore(pool, cfg.Logger(),
		persistence.WithAssignmentPageSize(cfg.Batch.AssignmentPageSize),
		persistence.WithActualsPageSize(cfg.Batch.ActualsPageSize),
	)
	return store, pool.Close, nil
}

func reconcileExitCode(err error) int {
	if is(err, domain.ErrUnresolvedReference) {
		return exitValidation
	}
	var stageErr *reconcile.StageError
	if as(err, &stageErr) && stageErr.Stage == reconcile.StageSchema {
		return exitDB
	}
	return exitDBWrite
}
