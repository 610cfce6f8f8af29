package determin

import (
	"bytes"
	"encoding/base64"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

// decodeXLSX implements the supplemental xlsx media type (§10.2):
// data is a base64-encoded XLSX workbook; only the first sheet is
// read, its first row becomes the header, mirroring the teacher's
// documented single-sheet XLSX limitation.
func decodeXLSX(b64 string) (*DataFrame, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, newInputError("xlsx", err, "invalid base64: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, newInputError("xlsx", err, "invalid xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return emptyDataFrame(), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, newInputError("xlsx", err, "reading sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return emptyDataFrame(), nil
	}
	header := rows[0]
	body := rows[1:]

	width := len(header)
	data := make(map[string][]Value, width)
	for ci, name := range header {
		col := make([]Value, len(body))
		for ri, row := range body {
			if ci < len(row) {
				col[ri] = Str(row[ci])
			} else {
				col[ri] = Null()
			}
		}
		data[name] = col
	}
	return NewDataFrame(header, data)
}

// decodeParquet implements the supplemental parquet media type
// (§10.2): data is a base64-encoded Parquet file; the schema's leaf
// columns become DataFrame columns in schema order.
func decodeParquet(b64 string) (*DataFrame, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, newInputError("parquet", err, "invalid base64: %v", err)
	}
	pf, err := parquet.OpenFile(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, newInputError("parquet", err, "invalid parquet: %v", err)
	}

	schema := pf.Schema()
	fields := schema.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	data := make(map[string][]Value, len(names))
	for _, n := range names {
		data[n] = nil
	}
	rows := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(rows)
		for i := 0; i < n; i++ {
			for ci, name := range names {
				data[name] = append(data[name], parquetValueToValue(rows[i][ci]))
			}
		}
		if err != nil {
			break
		}
	}
	return NewDataFrame(names, data)
}

// parquetValueToValue converts a leaf-column cell read from a parquet
// row into the engine's Value union.
func parquetValueToValue(v parquet.Value) Value {
	if v.IsNull() {
		return Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return Bool(v.Boolean())
	case parquet.Int32, parquet.Int64:
		return Int(v.Int64())
	case parquet.Float, parquet.Double:
		return Float(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return Str(string(v.ByteArray()))
	default:
		return Str(v.String())
	}
}
