// Package loader reads accelerometer CSV exports into an accel.Series.
//
// A file starts with one header line
//
//	acceleration (mg) - 2015-08-06 10:00:00 - 2015-08-13 09:59:55 - sampleRate = 5 seconds,imputed
//
// followed by one "acceleration,imputed" row per sample.
package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/units"
)

// DefaultSampleRateSeconds applies when the header omits the sample rate.
const DefaultSampleRateSeconds = 5

const headerTimeLayout = "2006-01-02 15:04:05"

var (
	unitRe       = regexp.MustCompile(`acceleration \((\w+)\)`)
	timeRangeRe  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) - (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
	sampleRateRe = regexp.MustCompile(`sampleRate = (\d+) seconds`)
)

// Header is the metadata carried by the first line of a file.
type Header struct {
	Unit              string    `json:"unit"`
	Start             time.Time `json:"start_time"`
	End               time.Time `json:"end_time"`
	SampleRateSeconds int       `json:"sample_rate_seconds"`
	HasImputed        bool      `json:"has_imputed_data"`
}

// ExpectedSamples is the number of samples the header's time range implies,
// or 0 when the range is incomplete.
func (h Header) ExpectedSamples() int {
	if h.Start.IsZero() || h.End.IsZero() || h.SampleRateSeconds <= 0 {
		return 0
	}
	return int(h.End.Sub(h.Start).Seconds() / float64(h.SampleRateSeconds))
}

// ParseHeader extracts unit, time range and sample rate. Missing fields keep
// their defaults; an unsupported unit is an error. Times carry no offset and
// are read in loc.
func ParseHeader(line string, loc *time.Location) (Header, error) {
	if loc == nil {
		loc = time.UTC
	}
	h := Header{
		Unit:              units.MG,
		SampleRateSeconds: DefaultSampleRateSeconds,
		HasImputed:        strings.Contains(strings.ToLower(line), "imputed"),
	}
	if m := unitRe.FindStringSubmatch(line); m != nil {
		unit, err := units.Normalize(m[1])
		if err != nil {
			return h, err
		}
		h.Unit = unit
	}
	if m := timeRangeRe.FindStringSubmatch(line); m != nil {
		start, err := time.ParseInLocation(headerTimeLayout, m[1], loc)
		if err != nil {
			return h, fmt.Errorf("failed to parse start time: %w", err)
		}
		end, err := time.ParseInLocation(headerTimeLayout, m[2], loc)
		if err != nil {
			return h, fmt.Errorf("failed to parse end time: %w", err)
		}
		h.Start, h.End = start, end
	}
	if m := sampleRateRe.FindStringSubmatch(line); m != nil {
		rate, err := strconv.Atoi(m[1])
		if err != nil || rate <= 0 {
			return h, fmt.Errorf("invalid sample rate %q", m[1])
		}
		h.SampleRateSeconds = rate
	}
	return h, nil
}

// File is a loaded recording.
type File struct {
	Participant        string
	Path               string
	Header             Header
	Series             accel.Series
	ExpectedSamples    int
	SampleCountMatches bool
	MissingCount       int
	ImputedCount       int
}

// Recording converts the file into pipeline input.
func (f *File) Recording() analysis.Recording {
	expected := f.ExpectedSamples
	if expected == 0 {
		expected = f.Series.Len()
	}
	return analysis.Recording{
		Participant:     f.Participant,
		SourceFile:      filepath.Base(f.Path),
		Series:          f.Series,
		ExpectedSamples: expected,
	}
}

// ParticipantID is the base filename up to its first underscore.
func ParticipantID(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '_'); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Loader parses files. Location is the zone of header timestamps.
type Loader struct {
	Location *time.Location
	Logf     monitoring.LogFunc
}

// New returns a loader reading header times in loc (UTC when nil).
func New(loc *time.Location, logf monitoring.LogFunc) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{Location: loc, Logf: monitoring.OrDefault(logf)}
}

// LoadFile reads and parses one file.
func (l *Loader) LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	file, err := l.Read(ParticipantID(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	file.Path = path
	return file, nil
}

// Read parses a header line and the sample rows that follow it.
func (l *Loader) Read(participant string, r io.Reader) (*File, error) {
	logf := monitoring.OrDefault(l.Logf)
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h, err := ParseHeader(strings.TrimSpace(line), l.Location)
	if err != nil {
		return nil, err
	}
	if h.Start.IsZero() {
		return nil, &accel.InputShapeError{Field: "timestamp", Reason: "header has no start time"}
	}

	file := &File{Participant: participant, Header: h}
	samples, err := readSamples(br, h.Unit, file)
	if err != nil {
		return nil, err
	}
	file.Series = accel.Series{
		Start:    h.Start,
		Interval: time.Duration(h.SampleRateSeconds) * time.Second,
		Samples:  samples,
	}
	file.ExpectedSamples = h.ExpectedSamples()
	diff := file.ExpectedSamples - len(samples)
	file.SampleCountMatches = file.ExpectedSamples == 0 || (diff >= -1 && diff <= 1)
	if !file.SampleCountMatches {
		logf("loader: %s: expected %d samples from header, read %d", participant, file.ExpectedSamples, len(samples))
	}
	logf("loader: %s: %d samples, %d imputed, %d missing", participant, len(samples), file.ImputedCount, file.MissingCount)
	return file, nil
}

func readSamples(r io.Reader, unit string, file *File) ([]accel.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var samples []accel.Sample
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row, err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		var s accel.Sample
		if s.Acceleration, err = parseAcceleration(rec[0]); err != nil {
			return nil, fmt.Errorf("line %d: %w", row, err)
		}
		if math.IsNaN(s.Acceleration) {
			file.MissingCount++
		} else {
			s.Acceleration = units.ToMG(s.Acceleration, unit)
		}
		if len(rec) > 1 {
			if s.Imputed, err = parseImputed(rec[1]); err != nil {
				return nil, fmt.Errorf("line %d: %w", row, err)
			}
		}
		if s.Imputed {
			file.ImputedCount++
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseAcceleration(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" || strings.EqualFold(field, "nan") || strings.EqualFold(field, "na") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid acceleration %q", field)
	}
	return v, nil
}

func parseImputed(field string) (bool, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return false, nil
	}
	if b, err := strconv.ParseBool(field); err == nil {
		return b, nil
	}
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v != 0, nil
	}
	return false, fmt.Errorf("invalid imputed flag %q", field)
}
