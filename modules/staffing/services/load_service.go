package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/myscheduling/seedload/modules/staffing/aggregate"
	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/modules/staffing/ingest"
	"github.com/myscheduling/seedload/modules/staffing/reconcile"
)

// LoadService runs the load pipeline: read and normalize the input, build
// entities, resolve identities, reconcile against a Gateway.
type LoadService struct {
	logger   logrus.FieldLogger
	input    ingest.Options
	resolver *aggregate.Resolver
}

func NewLoadService(logger logrus.FieldLogger, input ingest.Options, resolver *aggregate.Resolver) *LoadService {
	if resolver == nil {
		resolver = aggregate.NewResolver()
	}
	return &LoadService{
		logger:   logger.WithField("component", "load_service"),
		input:    input,
		resolver: resolver,
	}
}

// Build reads path and returns the resolved dataset. Nothing is persisted.
func (s *LoadService) Build(path string) (*domain.Dataset, error) {
	rows, err := ingest.ReadFile(path, s.input)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	ds := aggregate.Aggregate(rows)
	s.resolver.Resolve(ds)

	counts := ds.Counts()
	s.logger.WithFields(logrus.Fields{
		"path":        path,
		"rows":        len(rows),
		"employees":   counts.Employees,
		"projects":    counts.Projects,
		"wbs":         counts.WBS,
		"assignments": counts.Assignments,
	}).Info("dataset built")
	return ds, nil
}

func (s *LoadService) Reconcile(ctx context.Context, gateway domain.Gateway, ds *domain.Dataset, opts reconcile.Options) (*reconcile.Report, error) {
	return reconcile.NewEngine(gateway, s.logger, opts).Run(ctx, ds)
}

// Load is Build followed by Reconcile. The dataset is returned even when
// reconciliation fails.
func (s *LoadService) Load(ctx context.Context, gateway domain.Gateway, path string, opts reconcile.Options) (*domain.Dataset, *reconcile.Report, error) {
	ds, err := s.Build(path)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.Reconcile(ctx, gateway, ds, opts)
	return ds, report, err
}
