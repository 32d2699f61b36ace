// Package attendance writes the daily attendance sheet: one CSV file per day,
// header "Name,Time", one row per person the first time they are seen.
package attendance

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var (
	Header = []string{"Name", "Time"}
	log    = logrus.WithField("component", "LEDGER")
)

type Ledger struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// FileName returns "<YYYY-MM-DD>.csv" for day.
func FileName(day time.Time) string {
	return day.Format(DateLayout) + ".csv"
}

// Open creates the sheet for day in dir. The file is truncated unless
// appendMode is set; the header is written whenever the file starts empty.
func Open(dir string, day time.Time, appendMode bool) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "fail to create output directory %s", dir)
	}
	path := filepath.Join(dir, FileName(day))

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to open attendance file %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "fail to stat attendance file %s", path)
	}

	l := &Ledger{path: path, file: file, writer: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := l.write(Header); err != nil {
			file.Close()
			return nil, err
		}
	}
	log.Infoln("Writing attendance to", path)
	return l, nil
}

func (l *Ledger) Path() string {
	return l.path
}

// Record appends "name,HH:MM:SS" and flushes it to disk.
func (l *Ledger) Record(name string, at time.Time) error {
	return l.write([]string{name, at.Format(TimeLayout)})
}

func (l *Ledger) write(row []string) error {
	if err := l.writer.Write(row); err != nil {
		return errors.Wrapf(err, "fail to write row to %s", l.path)
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return errors.Wrapf(err, "fail to flush %s", l.path)
	}
	return nil
}

func (l *Ledger) Close() error {
	l.writer.Flush()
	flushErr := l.writer.Error()
	if err := l.file.Close(); err != nil {
		return errors.Wrapf(err, "fail to close %s", l.path)
	}
	return errors.Wrapf(flushErr, "fail to flush %s", l.path)
}

// ReadRows returns the data rows of a sheet, without the header.
func ReadRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to open %s", path)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "fail to parse %s", path)
	}
	if len(rows) > 0 && len(rows[0]) == len(Header) && rows[0][0] == Header[0] && rows[0][1] == Header[1] {
		rows = rows[1:]
	}
	return rows, nil
}
