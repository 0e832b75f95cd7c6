package historical

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/logging"
	"github.com/sabarim/b3quotes/internal/partition"
	"github.com/sabarim/b3quotes/internal/provider"
	"github.com/sabarim/b3quotes/internal/quote"
)

func day(s string) time.Time {
	t, _ := time.Parse(quote.DateLayout, s)
	return t
}

type fakeProvider map[string]*frame.Frame

func (p fakeProvider) Name() string { return "fake" }

func (p fakeProvider) Daily(_ context.Context, symbol string, _, _ time.Time) (*frame.Frame, error) {
	if f, ok := p[symbol]; ok {
		return f, nil
	}
	return frame.New(provider.Headers...), nil
}

func bars(t *testing.T, rows ...[]any) *frame.Frame {
	t.Helper()
	f := frame.New(provider.Headers...)
	for _, r := range rows {
		require.NoError(t, f.AppendRow(r...))
	}
	return f
}

type memStore struct {
	objects   map[string]string
	existsErr error
	putErr    error
	puts      []string
}

func newMemStore() *memStore { return &memStore{objects: map[string]string{}} }

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStore) Put(_ context.Context, key, src string) error {
	if m.putErr != nil {
		return m.putErr
	}
	if _, err := os.Stat(src); err != nil {
		return err
	}
	m.objects[key] = src
	m.puts = append(m.puts, key)
	return nil
}

func (m *memStore) Get(context.Context, string, string) error { return errors.New("not implemented") }

func (m *memStore) List(context.Context, string) ([]string, error) { return nil, nil }

func (m *memStore) URI(key string) string { return "mem://" + key }

func TestResolveDates(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)

	start, end, err := ResolveDates("", "", now)
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-03"), start)
	assert.Equal(t, day("2024-01-10"), end)

	start, end, err = ResolveDates("2024-01-01", "2024-01-01", now)
	require.NoError(t, err)
	assert.Equal(t, start, end)

	_, _, err = ResolveDates("2024-01-05", "2024-01-01", now)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, _, err = ResolveDates("01/05/2024", "", now)
	assert.True(t, errors.As(err, &verr))
}

func TestRunWritesLocalPartitions(t *testing.T) {
	p := fakeProvider{
		"^BVSP": bars(t,
			[]any{day("2024-01-02"), 132000.0, 134000.0, 131000.0, 133000.0, 133000.0, 1000.0},
			[]any{day("2024-01-03"), nil, 134500.0, 132000.0, 134000.0, 134000.0, 900.0},
			[]any{day("2024-01-04"), 134000.0, 135000.0, 133500.0, 134800.0, 134800.0, nil},
		),
		"PETR4.SA": bars(t,
			[]any{day("2024-01-02"), 37.1, 37.9, 36.8, 37.5, 35.2, 5000.0},
		),
	}
	out := t.TempDir()
	d := NewDownloader(p, nil, logging.Discard())

	summary, err := d.Run(context.Background(), Options{
		Tickers:     []string{"^BVSP", "PETR4.SA", "EMPTY3.SA"},
		Start:       day("2024-01-02"),
		End:         day("2024-01-04"),
		Prefix:      "raw",
		LocalOutput: out,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 3, summary.Partitions)
	require.Len(t, summary.Files, 3)

	assert.Equal(t, partition.LocalPath(out, "2024-01-02", "PETR4.SA"), summary.Files[0])
	assert.Equal(t, partition.LocalPath(out, "2024-01-02", "^BVSP"), summary.Files[1])
	assert.Equal(t, partition.LocalPath(out, "2024-01-04", "^BVSP"), summary.Files[2])
	assert.Contains(t, summary.Files[1], "ticker=idx_BVSP")

	f, err := partition.ReadFrame(summary.Files[1])
	require.NoError(t, err)
	assert.Equal(t, quote.RawColumns, f.Columns())
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "^BVSP", f.Value(quote.ColTickerSymbol, 0))

	f, err = partition.ReadFrame(summary.Files[2])
	require.NoError(t, err)
	assert.Nil(t, f.Value(quote.ColVolume, 0))
}

func TestRunMissingColumnIsSchemaError(t *testing.T) {
	f := frame.New(provider.HeaderDate, provider.HeaderOpen, provider.HeaderClose)
	require.NoError(t, f.AppendRow(day("2024-01-02"), 1.0, 2.0))

	d := NewDownloader(fakeProvider{"X": f}, nil, logging.Discard())
	_, err := d.Run(context.Background(), Options{
		Tickers: []string{"X"}, Start: day("2024-01-02"), End: day("2024-01-02"),
	})
	var serr *apperr.SchemaError
	require.True(t, errors.As(err, &serr))
	assert.Contains(t, serr.Missing, quote.ColAdjClose)
	assert.Contains(t, serr.Available, quote.ColTickerSymbol)
}

func TestRunInvertedRange(t *testing.T) {
	d := NewDownloader(fakeProvider{}, nil, logging.Discard())
	_, err := d.Run(context.Background(), Options{Start: day("2024-01-05"), End: day("2024-01-01")})
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRunUploadsAndSkipsExisting(t *testing.T) {
	p := fakeProvider{"VALE3.SA": bars(t,
		[]any{day("2024-01-02"), 60.0, 61.0, 59.0, 60.5, 60.5, 100.0},
		[]any{day("2024-01-03"), 60.5, 62.0, 60.0, 61.5, 61.5, 120.0},
	)}
	store := newMemStore()
	store.objects["raw/dt=2024-01-02/ticker=VALE3_SA/data.parquet"] = "old"
	tmp := t.TempDir()

	d := NewDownloader(p, store, logging.Discard())
	opts := Options{
		Tickers: []string{"VALE3.SA"}, Start: day("2024-01-02"), End: day("2024-01-03"),
		Prefix: "raw", TempDir: tmp,
	}
	summary, err := d.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Uploaded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"raw/dt=2024-01-03/ticker=VALE3_SA/data.parquet"}, store.puts)

	opts.Overwrite = true
	summary, err = d.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Uploaded)
	assert.Zero(t, summary.Skipped)

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRunAbortsOnExistenceCheckFailure(t *testing.T) {
	p := fakeProvider{"VALE3.SA": bars(t,
		[]any{day("2024-01-02"), 60.0, 61.0, 59.0, 60.5, 60.5, 100.0},
		[]any{day("2024-01-03"), 60.5, 62.0, 60.0, 61.5, 61.5, 120.0},
	)}
	store := newMemStore()
	store.existsErr = apperr.Remote("s3", "head", errors.New("access denied"))
	tmp := t.TempDir()

	d := NewDownloader(p, store, logging.Discard())
	summary, err := d.Run(context.Background(), Options{
		Tickers: []string{"VALE3.SA"}, Start: day("2024-01-02"), End: day("2024-01-03"),
		Prefix: "raw", TempDir: tmp,
	})
	var remote *apperr.RemoteServiceError
	require.True(t, errors.As(err, &remote))
	assert.Zero(t, summary.Partitions)
	assert.Empty(t, store.puts)

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRunDryRunLeavesTempFiles(t *testing.T) {
	p := fakeProvider{"ITUB4.SA": bars(t,
		[]any{day("2024-01-02"), 30.0, 31.0, 29.5, 30.5, 30.5, 10.0},
	)}
	store := newMemStore()
	tmp := t.TempDir()

	d := NewDownloader(p, store, logging.Discard())
	summary, err := d.Run(context.Background(), Options{
		Tickers: []string{"ITUB4.SA"}, Start: day("2024-01-02"), End: day("2024-01-02"),
		Prefix: "raw", TempDir: tmp, DryRun: true,
	})
	require.NoError(t, err)
	assert.Empty(t, store.puts)
	require.Len(t, summary.Files, 1)
	assert.FileExists(t, summary.Files[0])
}

func TestRunNothingFetched(t *testing.T) {
	store := newMemStore()
	d := NewDownloader(fakeProvider{}, store, logging.Discard())
	summary, err := d.Run(context.Background(), Options{
		Tickers: []string{"NONE"}, Start: day("2024-01-02"), End: day("2024-01-02"),
	})
	require.NoError(t, err)
	assert.Zero(t, summary.Partitions)
	assert.Empty(t, store.puts)
}
