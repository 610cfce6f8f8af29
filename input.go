package determin

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// InputPayload is the external representation of the Input Decoder's
// source, per spec §3. Data holds either a string (text/csv/xlsx/
// parquet, the latter two base64-encoded) or a list of structs (json).
type InputPayload struct {
	MediaType string         `json:"media_type,omitempty"`
	Data      any            `json:"data"`
	Options   *InputOptions  `json:"options,omitempty"`
}

// InputOptions carries the optional decode knobs of spec §3 plus the
// supplemental compression envelope of §10.3.
type InputOptions struct {
	Delimiter   string `json:"delimiter,omitempty"`
	HasHeader   *bool  `json:"has_header,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	Compression string `json:"compression,omitempty"`
}

func (o *InputOptions) delimiter() rune {
	if o == nil || o.Delimiter == "" {
		return ','
	}
	return []rune(o.Delimiter)[0]
}

func (o *InputOptions) hasHeader() bool {
	if o == nil || o.HasHeader == nil {
		return true
	}
	return *o.HasHeader
}

func (o *InputOptions) compression() string {
	if o == nil {
		return ""
	}
	return o.Compression
}

// DecodeInput converts an InputPayload into the initial DataFrame₀,
// per spec §4.1's contract: return a DataFrame or fail with
// InputError.
func DecodeInput(input *InputPayload) (*DataFrame, error) {
	if input == nil {
		return emptyDataFrame(), nil
	}
	switch input.MediaType {
	case "text":
		s, ok := input.Data.(string)
		if !ok {
			return nil, newInputError("text", ErrTypeMismatch, "data must be a string")
		}
		s, err := maybeDecompress(s, input.Options.compression())
		if err != nil {
			return nil, newInputError("text", err, "decompression failed")
		}
		return decodeText(s), nil

	case "csv":
		s, ok := input.Data.(string)
		if !ok {
			return nil, newInputError("csv", ErrTypeMismatch, "data must be a string")
		}
		s, err := maybeDecompress(s, input.Options.compression())
		if err != nil {
			return nil, newInputError("csv", err, "decompression failed")
		}
		return decodeCSV(s, input.Options.delimiter(), input.Options.hasHeader())

	case "json":
		return decodeJSONList(input.Data)

	case "xlsx":
		s, ok := input.Data.(string)
		if !ok {
			return nil, newInputError("xlsx", ErrTypeMismatch, "data must be a base64 string")
		}
		return decodeXLSX(s)

	case "parquet":
		s, ok := input.Data.(string)
		if !ok {
			return nil, newInputError("parquet", ErrTypeMismatch, "data must be a base64 string")
		}
		return decodeParquet(s)

	case "":
		return autoDetect(input.Data)

	default:
		return nil, newInputError(input.MediaType, ErrUnknownMediaType, "unsupported media_type %q", input.MediaType)
	}
}

func maybeDecompress(s, scheme string) (string, error) {
	if scheme == "" || scheme == "none" {
		return s, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("base64: %w", err)
	}
	out, err := decompressPayload(raw, scheme)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeText splits data on line breaks. A trailing empty line caused
// by a final newline is dropped iff present, per spec §4.1.
func decodeText(data string) *DataFrame {
	lines := strings.Split(data, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	values := make([]Value, len(lines))
	for i, l := range lines {
		values[i] = Str(l)
	}
	df, _ := NewDataFrame([]string{"line"}, map[string][]Value{"line": values})
	return df
}

func decodeCSV(data string, delimiter rune, hasHeader bool) (*DataFrame, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, newInputError("csv", err, "invalid csv: %v", err)
	}
	if len(records) == 0 {
		return emptyDataFrame(), nil
	}
	var header []string
	var rows [][]string
	if hasHeader {
		header = records[0]
		rows = records[1:]
	} else {
		width := 0
		for _, r := range records {
			if len(r) > width {
				width = len(r)
			}
		}
		header = make([]string, width)
		for i := range header {
			header[i] = fmt.Sprintf("column_%d", i+1)
		}
		rows = records
	}
	data2 := make(map[string][]Value, len(header))
	for ci, name := range header {
		col := make([]Value, len(rows))
		for ri, row := range rows {
			if ci < len(row) {
				col[ri] = Str(row[ci])
			} else {
				col[ri] = Null()
			}
		}
		data2[name] = col
	}
	return NewDataFrame(header, data2)
}

// decodeJSONList implements the json media type: data must be a list
// of structs; keys across elements union into columns in first-
// occurrence order, missing keys becoming null.
func decodeJSONList(data any) (*DataFrame, error) {
	var list []any
	switch t := data.(type) {
	case []any:
		list = t
	case string:
		if err := json.Unmarshal([]byte(t), &list); err != nil {
			return nil, newInputError("json", err, "data is not a JSON list: %v", err)
		}
	default:
		return nil, newInputError("json", ErrTypeMismatch, "data must be a list")
	}
	return buildFromStructList(list)
}

func buildFromStructList(list []any) (*DataFrame, error) {
	var order []string
	seen := map[string]bool{}
	rows := make([]map[string]any, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, newInputError("json", ErrTypeMismatch, "element %d is not a struct", i)
		}
		rows[i] = m
		for k := range m {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}
	data := make(map[string][]Value, len(order))
	for _, k := range order {
		col := make([]Value, len(rows))
		for i, row := range rows {
			if raw, ok := row[k]; ok {
				col[i] = valueFromJSON(raw)
			} else {
				col[i] = Null()
			}
		}
		data[k] = col
	}
	return NewDataFrame(order, data)
}

// autoDetect implements spec §4.1's absent-media_type branch: try JSON
// first (accepted only if it parses to a list-of-struct or empty
// list), else CSV if a separator character is present (accepted only
// if it yields >=1 column), else text.
func autoDetect(data any) (*DataFrame, error) {
	s, ok := data.(string)
	if !ok {
		if list, ok := data.([]any); ok {
			return buildFromStructList(list)
		}
		return nil, newInputError("", ErrTypeMismatch, "data must be a string or list for auto-detect")
	}

	var list []any
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		if len(list) == 0 {
			return buildFromStructList(list)
		}
		allStructs := true
		for _, el := range list {
			if _, ok := el.(map[string]any); !ok {
				allStructs = false
				break
			}
		}
		if allStructs {
			return buildFromStructList(list)
		}
		// parsed as JSON but not a list-of-struct; fall through to CSV/text.
	}

	if strings.ContainsAny(s, ",\t;|") {
		if df, err := decodeCSV(s, ',', true); err == nil && len(df.Columns()) >= 1 {
			return df, nil
		}
	}

	return decodeText(s), nil
}
