package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"orbbot/internal/domain"
)

func WriteKlinesToCSV(klines []*domain.Kline, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"})

	for _, k := range klines {
		writer.Write([]string{
			k.OpenTime.Format(time.RFC3339),
			k.CloseTime.Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			strconv.FormatFloat(k.Open, 'f', -1, 64),
			strconv.FormatFloat(k.High, 'f', -1, 64),
			strconv.FormatFloat(k.Low, 'f', -1, 64),
			strconv.FormatFloat(k.Close, 'f', -1, 64),
			strconv.FormatFloat(k.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadKlinesFromCSV loads klines written by WriteKlinesToCSV, header included.
func ReadKlinesFromCSV(filename string) ([]*domain.Kline, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	klines := make([]*domain.Kline, 0, len(rows)-1)
	for i, row := range rows[1:] { // Skip header
		if len(row) < 9 {
			return nil, fmt.Errorf("row %d of %s has %d fields, want 9", i+2, filename, len(row))
		}
		openTime, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d open_time: %w", i+2, err)
		}
		closeTime, err := time.Parse(time.RFC3339, row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d close_time: %w", i+2, err)
		}
		vals := make([]float64, 5)
		for j, s := range row[4:9] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d field %d: %w", i+2, j+5, err)
			}
			vals[j] = v
		}
		klines = append(klines, &domain.Kline{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Symbol:    row[2],
			Interval:  row[3],
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
			IsFinal:   true,
		})
	}
	return klines, nil
}
