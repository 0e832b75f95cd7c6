package partition

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/schema"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/sabarim/b3quotes/internal/frame"
	"github.com/sabarim/b3quotes/internal/quote"
)

// parallelism is the number of goroutines the parquet library uses to
// marshal and decode pages.
const parallelism = 4

// WriteRaw writes quotes to a raw parquet file, creating parent directories.
func WriteRaw(filename string, quotes []quote.Quote) error {
	records := make([]any, 0, len(quotes))
	for _, q := range quotes {
		records = append(records, RawRecord{
			TradeDate:     epochDays(q.TradeDate),
			OpenPrice:     quote.Float(q.Open),
			HighPrice:     quote.Float(q.High),
			LowPrice:      quote.Float(q.Low),
			ClosePrice:    quote.Float(q.Close),
			AdjClosePrice: quote.Float(q.AdjClose),
			Volume:        q.Volume,
			TickerSymbol:  q.Ticker,
		})
	}
	return writeFile(filename, new(RawRecord), records)
}

// WriteRefined writes refined rows to a parquet file, creating parent
// directories.
func WriteRefined(filename string, rows []quote.Refined) error {
	records := make([]any, 0, len(rows))
	for _, r := range rows {
		records = append(records, RefinedRecord{
			TradeDate:     epochDays(r.TradeDate),
			OpeningPrice:  quote.Float(r.Opening),
			HighPrice:     quote.Float(r.High),
			LowPrice:      quote.Float(r.Low),
			ClosingPrice:  quote.Float(r.Closing),
			AdjustedClose: quote.Float(r.AdjustedClose),
			VolumeTotal:   r.VolumeTotal,
			CloseMA5:      quote.Float(r.CloseMA5),
			CloseDelta:    quote.Float(r.CloseDelta),
			Dt:            r.Dt,
			Ticker:        r.Ticker,
		})
	}
	return writeFile(filename, new(RefinedRecord), records)
}

func writeFile(filename string, schema any, records []any) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create partition directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, schema, parallelism)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("failed to write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadFrame reads every column of a flat parquet file into a frame, using
// the column names stored in the file. Null values read as nil.
func ReadFrame(filename string) (*frame.Frame, error) {
	fr, err := local.NewLocalFileReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet footer of %s: %w", filename, err)
	}
	defer pr.ReadStop()

	rows := pr.GetNumRows()
	f := frame.New()
	for i, name := range leafColumns(pr.SchemaHandler) {
		values, _, _, err := pr.ReadColumnByIndex(int64(i), rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read column %s of %s: %w", name, filename, err)
		}
		if int64(len(values)) != rows {
			return nil, fmt.Errorf("column %s of %s has %d values, want %d", name, filename, len(values), rows)
		}
		if err := f.SetColumn(name, values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// leafColumns returns the external names of the leaf columns, in the order
// ReadColumnByIndex addresses them. The reader renames the footer schema to
// Go-style in-names, so names come from the schema handler instead.
func leafColumns(sh *schema.SchemaHandler) []string {
	var names []string
	for i, el := range sh.SchemaElements {
		if el.GetNumChildren() > 0 {
			continue
		}
		names = append(names, sh.GetExName(i))
	}
	return names
}

// ReadDir reads every *.parquet file under root, in lexical path order, into
// one frame. It also returns the files read. A missing root is an error; a
// root without parquet files yields an empty frame.
func ReadDir(root string) (*frame.Frame, []string, error) {
	files, err := ListFiles(root)
	if err != nil {
		return nil, nil, err
	}
	out := frame.New()
	for _, file := range files {
		f, err := ReadFrame(file)
		if err != nil {
			return nil, nil, err
		}
		if rel, err := filepath.Rel(root, file); err == nil {
			AddPathColumns(f, rel)
		}
		out.Concat(f)
	}
	return out, files, nil
}

// ListFiles returns every *.parquet file under root, sorted. root may also
// be a single parquet file.
func ListFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".parquet") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func epochDays(t time.Time) int32 {
	return int32(quote.Date(t).Unix() / 86400)
}
