package dataview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/donut/pkg/errors"
)

type document struct {
	Category *Dimension `json:"category,omitempty"`
	Series   *Dimension `json:"series,omitempty"`
	Measures []column   `json:"measures"`
}

type column struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Format      string   `json:"format,omitempty"`
	Series      string   `json:"series,omitempty"`
	Values      []number `json:"values"`
	Highlights  []number `json:"highlights,omitempty"`
}

// number is a float64 that survives JSON: null decodes to 0 and the strings
// "NaN", "Infinity" and "-Infinity" carry the values JSON cannot spell.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch strings.ToLower(s) {
		case "nan":
			*n = number(math.NaN())
		case "infinity", "+infinity", "inf":
			*n = number(math.Inf(1))
		case "-infinity", "-inf":
			*n = number(math.Inf(-1))
		default:
			return fmt.Errorf("invalid number %q", s)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(f)
}

func toNumbers(vals []float64) []number {
	if vals == nil {
		return nil
	}
	out := make([]number, len(vals))
	for i, v := range vals {
		out[i] = number(v)
	}
	return out
}

func toFloats(vals []number) []float64 {
	if vals == nil {
		return nil
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

// ReadJSON decodes a dataset from r.
//
// The input is a JSON object with an optional "category", an optional
// "series" and a "measures" array:
//
//	{
//	  "category": {"name": "Region", "members": [{"label": "North"}, {"label": "South"}]},
//	  "measures": [{"name": "Sales", "values": [30, 50], "highlights": [10, 20]}]
//	}
//
// Cells may be null (read as 0) or one of the strings "NaN", "Infinity" and
// "-Infinity". The shape is checked with [Result.CheckShape].
func ReadJSON(r io.Reader) (*Result, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	res := &Result{Category: doc.Category, Series: doc.Series}
	for _, c := range doc.Measures {
		res.Measures = append(res.Measures, Measure{
			Name:        c.Name,
			DisplayName: c.DisplayName,
			Format:      c.Format,
			Series:      c.Series,
			Values:      toFloats(c.Values),
			Highlights:  toFloats(c.Highlights),
		})
	}
	if err := res.CheckShape(); err != nil {
		return nil, err
	}
	return res, nil
}

// ReadTOML decodes a dataset written as TOML. TOML spells nan and inf
// natively, so no string escapes are needed:
//
//	[category]
//	name = "Region"
//	members = [{ label = "North" }, { label = "South" }]
//
//	[[measures]]
//	name = "Sales"
//	values = [30.0, nan]
func ReadTOML(r io.Reader) (*Result, error) {
	var res Result
	if _, err := toml.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	if err := res.CheckShape(); err != nil {
		return nil, err
	}
	return &res, nil
}

// Decode picks the decoder from a format name ("json" or "toml").
func Decode(r io.Reader, format string) (*Result, error) {
	switch format {
	case "json", "":
		return ReadJSON(r)
	case "toml":
		return ReadTOML(r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset format: %s", format)
	}
}

// Import reads the dataset file at path, choosing the decoder by extension.
func Import(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, FormatOf(path))
}

// FormatOf returns the dataset format implied by a file extension.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// WriteJSON encodes r in the format [ReadJSON] accepts.
func WriteJSON(r *Result, w io.Writer) error {
	doc := document{Category: r.Category, Series: r.Series, Measures: make([]column, len(r.Measures))}
	for i, m := range r.Measures {
		doc.Measures[i] = column{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Format:      m.Format,
			Series:      m.Series,
			Values:      toNumbers(m.Values),
			Highlights:  toNumbers(m.Highlights),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON returns the encoded dataset. It is used as the cache key input.
func MarshalJSON(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
