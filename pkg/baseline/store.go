package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Store provides durable persistence and retrieval of snapshots.
type Store interface {
	// Save writes the snapshot as a new baseline record and updates the
	// latest alias to reference it. Write errors always propagate.
	Save(snapshot Snapshot, tag string) (Record, error)

	// Load reads the snapshot stored under the given filename. A missing
	// or unreadable record yields an empty snapshot, not an error: "no
	// baseline yet" is a legitimate state.
	Load(file string) (Snapshot, error)

	// LoadLatest resolves the latest alias and loads it.
	LoadLatest() (Snapshot, error)

	// LoadValidated loads a record and verifies that every entry carries
	// the required fields with correct types. Any malformed entry
	// invalidates the whole record.
	LoadValidated(file string) (Snapshot, error)

	// ListInWindow returns handles of all valid records whose
	// filename-embedded timestamp is >= since, ordered ascending.
	// Records with unparsable filenames or invalid contents are skipped.
	ListInWindow(since time.Time) ([]Record, error)

	// LoadWindow is ListInWindow with the snapshots loaded alongside.
	LoadWindow(since time.Time) ([]Entry, error)

	// Dir returns the baseline directory path.
	Dir() string
}

// Compile-time interface check.
var _ Store = (*fsStore)(nil)

type fsStore struct {
	log   logrus.FieldLogger
	dir   string
	owner *Owner
	now   func() time.Time
}

// NewStore creates a filesystem-backed baseline store rooted at dir.
// A non-nil owner is applied to every file the store writes.
func NewStore(log logrus.FieldLogger, dir string, owner *Owner) Store {
	return &fsStore{
		log:   log.WithField("component", "baseline-store"),
		dir:   dir,
		owner: owner,
		now:   time.Now,
	}
}

// Dir returns the baseline directory path.
func (s *fsStore) Dir() string {
	return s.dir
}

// Save writes the snapshot as a new dated record, then atomically
// replaces the latest alias with a copy of it.
func (s *fsStore) Save(snapshot Snapshot, tag string) (Record, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Record{}, fmt.Errorf("creating baseline directory: %w", err)
	}

	s.owner.chown(s.dir)

	capturedAt := s.now().UTC().Truncate(time.Second)
	file := Filename(tag, capturedAt)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("marshaling snapshot: %w", err)
	}

	path := filepath.Join(s.dir, file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Record{}, fmt.Errorf("writing baseline %s: %w", file, err)
	}

	s.owner.chown(path)

	if err := s.updateLatest(data); err != nil {
		return Record{}, fmt.Errorf("updating latest alias: %w", err)
	}

	rec := Record{File: file, Tag: tag, CapturedAt: capturedAt}

	s.log.WithFields(logrus.Fields{
		"file":       file,
		"benchmarks": len(snapshot),
	}).Info("Saved baseline")

	return rec, nil
}

// updateLatest writes the alias through a temp file and renames it into
// place so a reader never observes a half-written alias.
func (s *fsStore) updateLatest(data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".latest-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("closing temp file: %w", err)
	}

	aliasPath := filepath.Join(s.dir, LatestAlias)
	if err := os.Rename(tmpPath, aliasPath); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replacing alias: %w", err)
	}

	s.owner.chown(aliasPath)

	return nil
}

// Load reads a record leniently. Missing or malformed records yield an
// empty snapshot so callers can treat "no baseline" as a normal state.
func (s *fsStore) Load(file string) (Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}

		return nil, fmt.Errorf("reading baseline %s: %w", file, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.WithError(err).WithField("file", file).
			Warn("Could not parse baseline, treating as empty")

		return Snapshot{}, nil
	}

	return snap, nil
}

// LoadLatest resolves the latest alias and loads it.
func (s *fsStore) LoadLatest() (Snapshot, error) {
	return s.Load(LatestAlias)
}

// requiredNumericFields are the duration statistics every entry must carry.
var requiredNumericFields = []string{"mean_ns", "std_dev_ns", "median_ns", "mad_ns"}

// LoadValidated loads a record strictly: every entry must have a string
// timestamp and the four numeric duration fields. One bad entry fails the
// whole record, since trend math over missing fields would silently
// corrupt slope calculations.
func (s *fsStore) LoadValidated(file string) (Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		return nil, fmt.Errorf("reading baseline %s: %w", file, err)
	}

	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", file, err)
	}

	for name, fields := range raw {
		if err := validateEntry(fields); err != nil {
			return nil, fmt.Errorf("baseline %s: benchmark %q: %w", file, name, err)
		}
	}

	snap := make(Snapshot, len(raw))
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding baseline %s: %w", file, err)
	}

	return snap, nil
}

// validateEntry checks the required field set and types of one entry.
func validateEntry(fields map[string]json.RawMessage) error {
	ts, ok := fields["timestamp"]
	if !ok {
		return fmt.Errorf("missing field %q", "timestamp")
	}

	var str string
	if err := json.Unmarshal(ts, &str); err != nil {
		return fmt.Errorf("field %q: expected string", "timestamp")
	}

	for _, field := range requiredNumericFields {
		raw, ok := fields[field]
		if !ok {
			return fmt.Errorf("missing field %q", field)
		}

		var num float64
		if err := json.Unmarshal(raw, &num); err != nil {
			return fmt.Errorf("field %q: expected number", field)
		}
	}

	return nil
}

// ListInWindow enumerates valid records captured at or after since,
// ascending by the filename-embedded timestamp.
func (s *fsStore) ListInWindow(since time.Time) ([]Record, error) {
	entries, err := s.LoadWindow(since)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}

	return records, nil
}

// LoadWindow enumerates valid records captured at or after since along
// with their snapshots, ascending by timestamp. Unparsable filenames and
// records failing validation are skipped: historical corruption must not
// block analysis of the remaining valid history.
func (s *fsStore) LoadWindow(since time.Time) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading baseline directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		rec, ok := ParseFilename(de.Name())
		if !ok {
			continue
		}

		if rec.CapturedAt.Before(since) {
			continue
		}

		snap, err := s.LoadValidated(rec.File)
		if err != nil {
			s.log.WithError(err).WithField("file", rec.File).
				Warn("Skipping invalid baseline")

			continue
		}

		entries = append(entries, Entry{Record: rec, Snapshot: snap})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.CapturedAt.Before(entries[j].Record.CapturedAt)
	})

	return entries, nil
}
