package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/frame"
)

// DefaultYahooBaseURL is the public Yahoo Finance host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo fetches daily history from the Yahoo Finance v8 chart API.
type Yahoo struct {
	Client  *http.Client
	BaseURL string
}

// NewYahoo creates a Yahoo provider. An empty baseURL uses the public host.
func NewYahoo(baseURL string, client *http.Client) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Yahoo{Client: client, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (y *Yahoo) Name() string { return "yahoo" }

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Daily fetches daily bars between start and end, both inclusive.
func (y *Yahoo) Daily(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(endOfRange(end).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return nil, apperr.Remote("yahoo", "chart", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Remote("yahoo", "chart", fmt.Errorf("read body: %w", err))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, apperr.Remote("yahoo", "chart", fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		}
		return nil, apperr.Remote("yahoo", "chart", fmt.Errorf("decode: %w", err))
	}
	if chart.Chart.Error != nil {
		// Unknown symbols come back as an API error with no result.
		if chart.Chart.Error.Code == "Not Found" {
			return newFrame(), nil
		}
		return nil, apperr.Remote("yahoo", "chart", fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Remote("yahoo", "chart", fmt.Errorf("status %d", resp.StatusCode))
	}

	f := newFrame()
	if len(chart.Chart.Result) == 0 {
		return f, nil
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return f, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range result.Timestamp {
		// Daily bars are stamped at the session open; shifting by the
		// exchange offset keeps the trade date local to the exchange.
		day := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		err := f.AppendRow(
			day,
			at(quote.Open, i),
			at(quote.High, i),
			at(quote.Low, i),
			at(quote.Close, i),
			at(adj, i),
			at(quote.Volume, i),
		)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func at(values []*float64, i int) any {
	if i >= len(values) {
		return nil
	}
	return nullable(values[i])
}
