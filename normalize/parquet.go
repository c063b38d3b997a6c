package normalize

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetParallelism is the writer's internal goroutine count. Artifacts are
// built one at a time, so a small value keeps memory bounded.
const parquetParallelism = 2

// Normalize converts a raw pipe-delimited payload into a parquet artifact
// with ZSTD compression. The parquet column layout preserves the input
// header's order, and every column is a UTF8 byte array.
func Normalize(raw []byte) ([]byte, error) {
	t, err := ParsePipeDelimited(raw)
	if err != nil {
		return nil, err
	}
	return WriteParquet(t)
}

// WriteParquet encodes an already-parsed table as parquet bytes.
func WriteParquet(t *Table) ([]byte, error) {
	fw := buffer.NewBufferFile()

	md := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		md[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8", col)
	}

	pw, err := writer.NewCSVWriter(md, fw, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for i, row := range t.Rows {
		rec := make([]*string, len(row))
		for j := range row {
			v := row[j]
			rec[j] = &v
		}
		if err := pw.WriteString(rec); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalizing parquet: %w", err)
	}
	return fw.Bytes(), nil
}
