package answerlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Header is the first row of a new answer log file.
var Header = []string{"Timestamp", "ModelPrediction", "UserResponse", "Correct"}

// CSV appends entries to a comma-separated file.
type CSV struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// OpenCSV opens path for appending, writing the header if the file is new or empty.
func OpenCSV(path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("answerlog: create dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("answerlog: open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("answerlog: stat %s: %w", path, err)
	}

	c := &CSV{file: file, w: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := c.write(Header); err != nil {
			file.Close()
			return nil, err
		}
	}
	return c, nil
}

// Record appends one row.
func (c *CSV) Record(e Entry) error {
	return c.write([]string{
		e.Timestamp.UTC().Format(time.RFC3339),
		strconv.Itoa(e.Prediction),
		strconv.FormatBool(e.Yes),
		strconv.FormatBool(e.Correct),
	})
}

func (c *CSV) write(row []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("answerlog: write row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	return c.file.Close()
}
