package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"codenerd/internal/govaudit"
	"codenerd/internal/govhash"
)

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify the hash chain of a persisted JSONL audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := govaudit.LoadJSONL(args[0])
		if err != nil {
			return err
		}
		if err := govaudit.VerifyRecords(records); err != nil {
			fmt.Printf("chain BROKEN: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("chain verified: %d records\n", len(records))
		return nil
	},
}

var (
	exportStart string
	exportEnd   string
)

var auditExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export a time range of a persisted audit log as a verified compliance bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := govaudit.LoadJSONL(args[0])
		if err != nil {
			return err
		}
		start, end, err := parseExportRange(exportStart, exportEnd, records)
		if err != nil {
			return err
		}

		var inRange []govaudit.Record
		for _, r := range records {
			if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
				inRange = append(inRange, r)
			}
		}
		sort.Slice(inRange, func(i, j int) bool { return inRange[i].Timestamp.Before(inRange[j].Timestamp) })

		hashes := make([]string, len(inRange))
		for i, r := range inRange {
			hashes[i] = r.RecordHash
		}

		export := map[string]any{
			"start":          start,
			"end":            end,
			"record_count":   len(inRange),
			"chain_verified": govaudit.VerifyRecords(records) == nil,
			"export_hash":    govhash.Hex(hashes...),
			"records":        inRange,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(export)
	},
}

func parseExportRange(startFlag, endFlag string, records []govaudit.Record) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Now().UTC()
	if startFlag != "" {
		t, err := time.Parse(time.RFC3339, startFlag)
		if err != nil {
			return start, end, fmt.Errorf("sentryctl: parse --start: %w", err)
		}
		start = t
	}
	if endFlag != "" {
		t, err := time.Parse(time.RFC3339, endFlag)
		if err != nil {
			return start, end, fmt.Errorf("sentryctl: parse --end: %w", err)
		}
		end = t
	}
	return start, end, nil
}

var auditTailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Follow a persisted JSONL audit log as new records are appended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tailAuditFile(args[0])
	},
}

// tailAuditFile watches path for writes and prints each newly appended
// record. It never mutates the file it watches.
func tailAuditFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sentryctl: open %s: %w", path, err)
	}
	defer f.Close()

	offset, err := printNewRecords(f, 0)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("sentryctl: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("sentryctl: watch %s: %w", path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			offset, err = printNewRecords(f, offset)
			if err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "sentryctl: watch error: %v\n", err)
		}
	}
}

func printNewRecords(f *os.File, offset int64) (int64, error) {
	if _, err := f.Seek(offset, os.SEEK_SET); err != nil {
		return offset, err
	}
	dec := json.NewDecoder(f)
	for dec.More() {
		var r govaudit.Record
		if err := dec.Decode(&r); err != nil {
			break
		}
		fmt.Printf("%s  %-28s  actor=%s  outcome=%s  subjects=%v\n",
			r.Timestamp.Format(time.RFC3339), r.Kind, r.ActorID, r.Outcome, r.SubjectRefs)
	}
	newOffset, err := f.Seek(0, os.SEEK_CUR)
	if err != nil {
		return offset, err
	}
	return newOffset, nil
}

func init() {
	auditExportCmd.Flags().StringVar(&exportStart, "start", "", "RFC3339 range start (default: epoch)")
	auditExportCmd.Flags().StringVar(&exportEnd, "end", "", "RFC3339 range end (default: now)")
}
