package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"

	"chronicles.ai/internal/sim/engine"
)

// EvaluationFiles lists the evaluation log files under dataDir, oldest first.
func EvaluationFiles(dataDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "evaluations", EvaluationPrefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, oops.Wrapf(err, "list evaluation logs in %s", dataDir)
	}
	sort.Strings(files)
	return files, nil
}

// ReadEvaluations calls fn for every evaluation in dataDir in write order.
// Returning an error from fn stops the scan with that error.
func ReadEvaluations(dataDir string, fn func(engine.Evaluation) error) error {
	files, err := EvaluationFiles(dataDir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := readFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string, fn func(engine.Evaluation) error) error {
	f, err := os.Open(path)
	if err != nil {
		return oops.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return oops.Wrapf(err, "zstd reader for %s", path)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	// Actions are small, but an evaluation also carries error details.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ev engine.Evaluation
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return oops.Wrapf(err, "%s line %d", path, line)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return oops.Wrapf(err, "scan %s", path)
	}
	return nil
}
