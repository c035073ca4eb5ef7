// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DailyFileName returns the log file name for the day of t.
func DailyFileName(t time.Time) string {
	return fmt.Sprintf("consulta_procesos_%s.log", t.Format("20060102"))
}

// OpenDailyFile opens (appending) the log file for the day of now inside dir,
// creating the directory when needed.
func OpenDailyFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, DailyFileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) // #nosec G304 -- path built from configured log dir
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
