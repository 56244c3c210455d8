package govaudit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// JSONLWriteCallback returns a WriteCallback that appends each record as
// one JSON line to f, fsyncing before returning so a record that
// Append() reports as persisted has actually reached disk — the
// ordering §4.1 requires of any persistence callback.
func JSONLWriteCallback(f *os.File) WriteCallback {
	return func(r Record) error {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("govaudit: marshal record: %w", err)
		}
		data = append(data, '\n')
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("govaudit: write record: %w", err)
		}
		return f.Sync()
	}
}

// LoadJSONL reads a JSONL audit file written by JSONLWriteCallback back
// into a Record slice, in file order, for the read-only tooling paths
// (verify, export, tail) that operate on a persisted log rather than a
// live in-process Log.
func LoadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("govaudit: open %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("govaudit: parse %s: %w", path, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("govaudit: scan %s: %w", path, err)
	}
	return records, nil
}
