package hunter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/log"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/hunterrors"
)

// WriteRecordFile serializes rc to record_<iterations>_iter.json in dir and
// logs a prominent line, matching the record-artifact contract.
func WriteRecordFile(dir string, logger log.Logger, rc domain.RecordCandidate) error {
	if logger == nil {
		logger = log.GetLogger()
	}
	name := fmt.Sprintf("record_%d_iter.json", rc.Iterations)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record candidate: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record file %s: %w", path, hunterrors.ErrIO)
	}

	logger.Info(map[string]any{
		"number":       rc.Number,
		"iterations":   rc.Iterations,
		"final_digits": rc.FinalDigits,
		"path":         path,
	}, "new record found")
	return nil
}

// RecordWriter returns a RecordFoundFunc that writes each record to dir via
// WriteRecordFile, swallowing write failures into a log line rather than
// aborting the hunt over a single record's I/O error.
func RecordWriter(dir string, logger log.Logger) RecordFoundFunc {
	if logger == nil {
		logger = log.GetLogger()
	}
	return func(rc domain.RecordCandidate) {
		if err := WriteRecordFile(dir, logger, rc); err != nil {
			logger.Error(map[string]any{"error": err.Error(), "number": rc.Number}, "failed to write record file")
		}
	}
}
