package operator

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tgberrios/datasync/internal/transform"
)

// JSONParser decodes a JSON- or XML-encoded string column (per format,
// default "json") and extracts fields_to_extract — a list of dotted
// paths (e.g. "address.city") — as sibling columns named by their
// final path segment. Rows whose source column fails to parse keep the
// raw value and gain a "_json_parser_error" column rather than being
// dropped.
type JSONParser struct{}

func (JSONParser) TypeName() string { return "json_parser" }

func (JSONParser) Validate(cfg map[string]any) error {
	if _, ok := configString(cfg, "source_column"); !ok {
		return fmt.Errorf("json_parser: source_column is required")
	}
	if len(configStringSlice(cfg, "fields_to_extract")) == 0 {
		return fmt.Errorf("json_parser: fields_to_extract must be a non-empty list")
	}
	switch format, _ := configString(cfg, "format"); format {
	case "json", "xml", "":
	default:
		return fmt.Errorf("json_parser: unknown format %q", format)
	}
	return nil
}

func (JSONParser) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	source, _ := configString(cfg, "source_column")
	format, _ := configString(cfg, "format")
	fields := configStringSlice(cfg, "fields_to_extract")

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		raw, ok := r[source].(string)
		if !ok || raw == "" {
			out[i] = nr
			continue
		}

		var decoded any
		var err error
		if format == "xml" {
			decoded, err = decodeXML([]byte(raw))
		} else {
			err = json.Unmarshal([]byte(raw), &decoded)
		}
		if err != nil {
			nr["_json_parser_error"] = err.Error()
			out[i] = nr
			continue
		}

		for _, path := range fields {
			segments := strings.Split(path, ".")
			colName := segments[len(segments)-1]
			nr[colName] = dottedPath(decoded, segments)
		}
		out[i] = nr
	}
	return out, nil
}

// dottedPath walks decoded (a tree of map[string]any/[]any/scalars)
// following path segments; returns nil on any missing segment. No pack
// dependency carries a JSONPath evaluator, so this is hand-rolled.
func dottedPath(decoded any, path []string) any {
	cur := decoded
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// decodeXML builds a map[string]any tree from XML tokens: repeated
// sibling tags under the same parent become a []any, text-only
// elements collapse to their string content.
func decodeXML(data []byte) (any, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("xml: empty document")
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeXMLElement(dec, start)
		}
	}
}

func decodeXMLElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	children := map[string]any{}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			name := t.Name.Local
			if existing, ok := children[name]; ok {
				if list, ok := existing.([]any); ok {
					children[name] = append(list, child)
				} else {
					children[name] = []any{existing, child}
				}
			} else {
				children[name] = child
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(children) == 0 {
				return strings.TrimSpace(text.String()), nil
			}
			return children, nil
		}
	}
}
