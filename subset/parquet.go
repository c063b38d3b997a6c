package subset

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"fedharvest/normalize"
)

// ReadParquet decodes a published artifact back into a table of opaque
// strings, columns in file order. Only the flat all-string layout produced by
// the normalizer is supported.
func ReadParquet(data []byte) (*normalize.Table, error) {
	fr := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetColumnReader(fr, 1)
	if err != nil {
		return nil, fmt.Errorf("opening parquet: %w", err)
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	paths := pr.SchemaHandler.ValueColumns

	t := &normalize.Table{
		Columns: make([]string, len(paths)),
		Rows:    make([][]string, numRows),
	}
	for i := range t.Rows {
		t.Rows[i] = make([]string, len(paths))
	}

	for col, path := range paths {
		idx, ok := pr.SchemaHandler.MapIndex[path]
		if !ok {
			return nil, fmt.Errorf("unknown column path %q", path)
		}
		t.Columns[col] = pr.SchemaHandler.Infos[idx].ExName

		values, _, _, err := pr.ReadColumnByPath(path, int64(numRows))
		if err != nil {
			return nil, fmt.Errorf("reading column %q: %w", t.Columns[col], err)
		}
		if len(values) != numRows {
			return nil, fmt.Errorf("column %q has %d values, expected %d", t.Columns[col], len(values), numRows)
		}

		for row, v := range values {
			switch val := v.(type) {
			case nil:
				t.Rows[row][col] = ""
			case string:
				t.Rows[row][col] = val
			default:
				t.Rows[row][col] = fmt.Sprint(val)
			}
		}
	}
	return t, nil
}
