package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// LoadTargets reads a "subreddit,min_score" CSV with a header row.
// Rows with an invalid name are skipped; a missing or bad score means 0.
func LoadTargets(path string) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseTargets(f)
}

func ParseTargets(r io.Reader) ([]domain.Target, error) {
	// Wrap in BOM stripper
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1

	var targets []domain.Target
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return targets, fmt.Errorf("read targets: %w", err)
		}
		line++
		if line == 1 {
			continue // Skip header
		}

		// Validation (Fail-Soft)
		sub := strings.TrimPrefix(strings.TrimSpace(record[0]), "r/")
		if !subNameRegex.MatchString(sub) {
			continue
		}

		var score int
		if len(record) > 1 {
			score, _ = strconv.Atoi(strings.TrimSpace(record[1]))
		}

		targets = append(targets, domain.Target{
			Subreddit: sub,
			MinScore:  score,
		})
	}
	return targets, nil
}

// FromNames builds targets that use the run threshold.
func FromNames(names []string) []domain.Target {
	targets := make([]domain.Target, 0, len(names))
	for _, n := range names {
		targets = append(targets, domain.Target{Subreddit: n})
	}
	return targets
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
