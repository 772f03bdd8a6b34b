package codegolf

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/schaermu/golfsync/internal/solution"
)

// exportResponse is the body of GET /golfer/export
type exportResponse struct {
	Solutions []exportSolution `json:"solutions"`
}

type exportSolution struct {
	Hole      string `json:"hole"`
	Lang      string `json:"lang"`
	Scoring   string `json:"scoring"`
	Code      string `json:"code"`
	Submitted string `json:"submitted"`
	Bytes     int    `json:"bytes"`
	Chars     int    `json:"chars"`
}

// normalizeOptions controls how exported solutions become records
type normalizeOptions struct {
	OnlyScoring     string
	KeepScoringName bool
}

type holeLang struct {
	hole string
	lang string
}

// normalize filters and deduplicates exported solutions and returns them
// sorted by key. Solutions without code or with unusable hole/lang codes are
// dropped. When every scoring of a hole/lang pair shares the same code, the
// scoring is cleared so they collapse into one record, unless
// KeepScoringName or OnlyScoring is set. Among records sharing a key the most
// recently submitted one is kept.
func normalize(raw []exportSolution, opts normalizeOptions, logger *slog.Logger) []solution.Record {
	valid := make([]exportSolution, 0, len(raw))
	for _, s := range raw {
		if s.Code == "" {
			logger.Debug("dropping solution without code", "hole", s.Hole, "lang", s.Lang, "scoring", s.Scoring)
			continue
		}
		if err := validateCodes(s); err != nil {
			logger.Warn("dropping solution with unusable identifiers", "hole", s.Hole, "lang", s.Lang, "error", err)
			continue
		}
		valid = append(valid, s)
	}

	codes := make(map[holeLang]map[string]bool)
	for _, s := range valid {
		k := holeLang{s.Hole, s.Lang}
		if codes[k] == nil {
			codes[k] = make(map[string]bool)
		}
		codes[k][s.Code] = true
	}

	byKey := make(map[solution.Key]int)
	records := make([]solution.Record, 0, len(valid))
	for _, s := range valid {
		if opts.OnlyScoring != "" && s.Scoring != opts.OnlyScoring {
			continue
		}

		rec := toRecord(s)
		unique := len(codes[holeLang{s.Hole, s.Lang}]) == 1
		if unique && !opts.KeepScoringName && opts.OnlyScoring == "" {
			rec.Scoring = ""
		}

		if idx, ok := byKey[rec.Key()]; ok {
			if rec.Submitted.After(records[idx].Submitted) {
				records[idx] = rec
			}
			continue
		}
		byKey[rec.Key()] = len(records)
		records = append(records, rec)
	}

	solution.Sort(records)
	return records
}

func validateCodes(s exportSolution) error {
	if err := solution.ValidateSegment(s.Hole); err != nil {
		return err
	}
	if err := solution.ValidateSegment(s.Lang); err != nil {
		return err
	}
	if s.Scoring != "" {
		return solution.ValidateSegment(s.Scoring)
	}
	return nil
}

func toRecord(s exportSolution) solution.Record {
	rec := solution.Record{
		Hole:      s.Hole,
		Lang:      s.Lang,
		Scoring:   s.Scoring,
		Code:      s.Code,
		Bytes:     s.Bytes,
		Chars:     s.Chars,
		Submitted: parseSubmitted(s.Submitted),
	}
	if rec.Bytes == 0 {
		rec.Bytes = len(s.Code)
	}
	if rec.Chars == 0 {
		rec.Chars = utf8.RuneCountInString(s.Code)
	}
	return rec
}

var submittedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// parseSubmitted returns the zero time for missing or unrecognised values
func parseSubmitted(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range submittedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
