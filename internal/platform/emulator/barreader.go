package emulator

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/gamma-omg/quantlab/internal/market"
)

type barFilter func(b market.Bar) bool

type barOrErr struct {
	bar market.Bar
	err error
}

type barReader struct {
	path   string
	filter barFilter
}

func newBarReader(dataPath string) (*barReader, error) {
	return newBarReaderWithFilter(dataPath, func(b market.Bar) bool { return true })
}

func newBarReaderWithFilter(dataPath string, filter barFilter) (*barReader, error) {
	if _, err := os.Stat(dataPath); err != nil {
		return nil, fmt.Errorf("unable to create bar reader: %w", err)
	}

	return &barReader{
		path:   dataPath,
		filter: filter,
	}, nil
}

// Read streams bars from the file. The channel is closed after the last bar,
// after the first error, or when ctx is done.
func (b *barReader) Read(ctx context.Context) <-chan barOrErr {
	out := make(chan barOrErr, 64)

	go func() {
		defer close(out)

		send := func(v barOrErr) bool {
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		f, err := os.Open(b.path)
		if err != nil {
			send(barOrErr{err: fmt.Errorf("failed to open bar data: %w", err)})
			return
		}
		defer f.Close()

		rdr := csv.NewReader(bufio.NewReader(f))
		if _, err := rdr.Read(); err != nil {
			send(barOrErr{err: fmt.Errorf("failed to read csv header: %w", err)})
			return
		}

		for {
			data, err := rdr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(barOrErr{err: fmt.Errorf("failed to read bar data: %w", err)})
				return
			}

			bar, err := parseBar(data)
			if err != nil {
				line, _ := rdr.FieldPos(0)
				send(barOrErr{err: fmt.Errorf("line %d: %w", line, err)})
				return
			}

			if b.filter(bar) && !send(barOrErr{bar: bar}) {
				return
			}
		}
	}()

	return out
}

func parseBar(data []string) (market.Bar, error) {
	if len(data) < 6 {
		return market.Bar{}, fmt.Errorf("expected 6 columns, got %d", len(data))
	}

	timestamp, err := strconv.ParseFloat(data[0], 64)
	if err != nil {
		return market.Bar{}, fmt.Errorf("failed to parse bar time: %w", err)
	}

	var prices [4]float64
	for i, name := range []string{"open", "high", "low", "close"} {
		prices[i], err = strconv.ParseFloat(data[i+1], 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("failed to read %s price: %w", name, err)
		}
	}

	volume, err := strconv.ParseFloat(data[5], 64)
	if err != nil {
		return market.Bar{}, fmt.Errorf("failed to read volume: %w", err)
	}

	sec, frac := math.Modf(timestamp)
	return market.Bar{
		Timestamp: int64(sec)*1e9 + int64(math.Round(frac*1e9)),
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    int64(volume),
	}, nil
}
