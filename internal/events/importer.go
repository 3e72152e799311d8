package events

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"ctarchive/internal/metrics"
)

// Log line grammar: [REQUEST] - [<ISO-8601 timestamp>] - <hex token> - <url>
// The hex token is an opaque per-visitor hash produced upstream; it is stored
// verbatim as the visitor key.
var logLineRe = regexp.MustCompile(`^\[REQUEST\] - \[([^\]]+)\] - ([0-9a-f]+) - (https?://.+)$`)

// ImportResult reports how an import batch went.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportLog reads one candidate event per line and appends the matching ones
// to the store in a single transaction: the whole batch commits or rolls back
// together. Blank lines, lines that miss the grammar, and lines whose URL
// fails normalization are expected input noise, counted as skipped.
func ImportLog(dbManager cartridge.DBManager, logger *slog.Logger, r io.Reader) (ImportResult, error) {
	db := dbManager.GetConnection()

	var result ImportResult
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		scanner := bufio.NewScanner(r)
		// Raw URLs can get long; the default 64K token limit is enough,
		// but a URL line is never worth aborting the batch over.
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				result.Skipped++
				continue
			}

			pv, ok := parseLogLine(line)
			if !ok {
				result.Skipped++
				continue
			}

			if err := tx.Create(pv).Error; err != nil {
				return fmt.Errorf("failed to store imported page view: %w", err)
			}
			result.Imported++
		}
		return scanner.Err()
	})
	if err != nil {
		logger.Error("Log import aborted, batch rolled back", slog.Any("error", err))
		return ImportResult{}, fmt.Errorf("log import failed: %w", err)
	}

	metrics.ImportedLines.Add(float64(result.Imported))
	metrics.SkippedLines.Add(float64(result.Skipped))

	logger.Info("Log import finished",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// parseLogLine turns one trimmed log line into a PageView. A false return
// means the line is tolerated noise, not an error.
func parseLogLine(line string) (*PageView, bool) {
	m := logLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	occurredAt, err := time.Parse(time.RFC3339, m[1])
	if err != nil {
		return nil, false
	}

	// Imported events carry no referer or user agent; the upstream log
	// never recorded them.
	pv, err := NormalizeRawURL(m[3], occurredAt, m[2], "", "")
	if err != nil {
		return nil, false
	}
	return pv, true
}
