package app

import (
	"context"

	"mcprice/domain/option"
	"mcprice/domain/run"
	"mcprice/internal/errors"
)

// Verify reprices the run recorded in report and checks that the estimate
// comes back bit-identical. The service must be set up like the recorded
// run: a different strategy, batch size or code version is reported as a
// hash mismatch before anything is repriced.
func (s *PricingService) Verify(ctx context.Context, params option.SimulationParameters, report *PricingReport) error {
	recorded := report.Manifest
	expected := run.NewRunFingerprint(params.Canonical(), recorded.Seed, s.executor.Name(), s.executor.BatchSize(), run.CodeVersion)
	if !expected.Fingerprint.Equals(recorded.Fingerprint.Fingerprint) {
		return errors.HashMismatch("run %s has fingerprint %s, %s with batch size %d gives %s",
			recorded.RunID, recorded.Fingerprint.Fingerprint.Short(),
			s.executor.Name(), s.executor.BatchSize(), expected.Fingerprint.Short())
	}

	rerun, err := s.WithProfile(0).Price(ctx, params, recorded.Seed)
	if err != nil {
		return errors.Wrapf(err, "rerun of %s", recorded.RunID)
	}
	if rerun.Result != report.Result {
		return errors.NonDeterministic("run %s: call %v then %v, put %v then %v",
			recorded.RunID, report.Result.CallPrice, rerun.Result.CallPrice,
			report.Result.PutPrice, rerun.Result.PutPrice)
	}
	s.logger.Info("run %s reproduced by %s", recorded.RunID, rerun.Manifest.RunID)
	return nil
}
