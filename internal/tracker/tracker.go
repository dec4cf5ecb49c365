// Package tracker keeps the append-only campaign log that makes reruns
// idempotent.
package tracker

import (
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeAmbiguous Outcome = "ambiguous"
)

// Record is one line of the campaign log.
type Record struct {
	RunID      string  `csv:"run_id"`
	Name       string  `csv:"name"`
	Number     string  `csv:"number"`
	Normalized string  `csv:"normalized"`
	Outcome    Outcome `csv:"outcome"`
	Reason     string  `csv:"reason"`
	Method     string  `csv:"method"`
	Timestamp  string  `csv:"timestamp"`
}

// Counters are the per-run tallies reported at the end of a campaign.
type Counters struct {
	Sent        int
	Failed      int
	Ambiguous   int
	Excluded    int
	AlreadySent int
}

type Tracker struct {
	filePath       string
	runID          string
	retryAmbiguous bool
	sent           map[string]Record // key: normalized number
	ambiguous      map[string]Record
	Counters
}

// New loads the existing log at filePath. With retryAmbiguous false an
// ambiguous outcome counts as already sent, since the message may have gone out.
func New(filePath, runID string, retryAmbiguous bool) (*Tracker, error) {
	t := &Tracker{
		filePath:       filePath,
		runID:          runID,
		retryAmbiguous: retryAmbiguous,
		sent:           make(map[string]Record),
		ambiguous:      make(map[string]Record),
	}

	if err := t.load(); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrap(err, "failed to load campaign log")
		}
	}
	return t, nil
}

func (t *Tracker) load() error {
	file, err := os.Open(t.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var records []*Record
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return errors.Wrap(err, "failed to read campaign log")
	}

	for _, r := range records {
		if r.Normalized == "" {
			continue
		}
		switch r.Outcome {
		case OutcomeSuccess:
			t.sent[r.Normalized] = *r
		case OutcomeAmbiguous:
			t.ambiguous[r.Normalized] = *r
		}
	}

	zap.S().Infow("loaded campaign log",
		"path", t.filePath, "records", len(records),
		"sent", len(t.sent), "ambiguous", len(t.ambiguous))
	return nil
}

// SentSet returns the normalized numbers a rerun must skip.
func (t *Tracker) SentSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.sent)+len(t.ambiguous))
	for n := range t.sent {
		set[n] = struct{}{}
	}
	if !t.retryAmbiguous {
		for n := range t.ambiguous {
			set[n] = struct{}{}
		}
	}
	return set
}

func (t *Tracker) IsSent(normalized string) bool {
	if _, ok := t.sent[normalized]; ok {
		return true
	}
	if t.retryAmbiguous {
		return false
	}
	_, ok := t.ambiguous[normalized]
	return ok
}

func (t *Tracker) RecordSuccess(name, number, normalized, method string) error {
	t.Sent++
	return t.append(Record{
		Name: name, Number: number, Normalized: normalized,
		Outcome: OutcomeSuccess, Method: method,
	})
}

func (t *Tracker) RecordFailure(name, number, normalized, reason string) error {
	t.Failed++
	return t.append(Record{
		Name: name, Number: number, Normalized: normalized,
		Outcome: OutcomeFailed, Reason: reason,
	})
}

func (t *Tracker) RecordAmbiguous(name, number, normalized, reason string) error {
	t.Ambiguous++
	return t.append(Record{
		Name: name, Number: number, Normalized: normalized,
		Outcome: OutcomeAmbiguous, Reason: reason,
	})
}

func (t *Tracker) append(r Record) error {
	r.RunID = t.runID
	r.Timestamp = time.Now().Format(time.RFC3339)

	switch r.Outcome {
	case OutcomeSuccess:
		t.sent[r.Normalized] = r
	case OutcomeAmbiguous:
		t.ambiguous[r.Normalized] = r
	}

	writeHeader := false
	if info, err := os.Stat(t.filePath); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}

	file, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to open campaign log")
	}
	defer file.Close()

	if err := writeRecord(file, r, writeHeader); err != nil {
		return errors.Wrap(err, "failed to append campaign log")
	}
	return file.Sync()
}

func writeRecord(w io.Writer, r Record, header bool) error {
	records := []Record{r}
	if header {
		return gocsv.Marshal(records, w)
	}
	return gocsv.MarshalWithoutHeaders(records, w)
}

func (t *Tracker) FilePath() string { return t.filePath }
