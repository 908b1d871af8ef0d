package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Portfolio CSV columns.
const (
	ColumnTicker = "TICKER"
	ColumnBS     = "BS"
)

// LoadPortfolio reads the tickers to analyze from a portfolio CSV.
func LoadPortfolio(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening portfolio: %w", err)
	}
	defer f.Close()

	tickers, err := ReadPortfolio(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tickers, nil
}

// ReadPortfolio parses portfolio CSV. Rows whose BS column is "I" (index
// funds and ETFs), crypto pairs ending in -USD and blank tickers are
// skipped. The BS column is optional.
func ReadPortfolio(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("portfolio is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	tickerCol, bsCol := -1, -1
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case ColumnTicker:
			tickerCol = i
		case ColumnBS:
			bsCol = i
		}
	}
	if tickerCol < 0 {
		return nil, fmt.Errorf("missing %s column", ColumnTicker)
	}

	var tickers []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if bsCol >= 0 && bsCol < len(row) && strings.TrimSpace(row[bsCol]) == "I" {
			continue
		}
		if tickerCol >= len(row) {
			continue
		}
		ticker := strings.TrimSpace(row[tickerCol])
		if ticker == "" || strings.Contains(ticker, "-USD") {
			continue
		}
		tickers = append(tickers, ticker)
	}
	return tickers, nil
}
