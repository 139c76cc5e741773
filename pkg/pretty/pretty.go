// Package pretty renders reconciliation results for the terminal. Structs
// opt fields into table output with a `table` tag naming the column.
package pretty

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"
)

// EncodeJSON renders any struct data as indented JSON
func EncodeJSON(data any) string {
	var buffer bytes.Buffer
	enc := json.NewEncoder(&buffer)
	enc.SetIndent("", "    ")
	if err := enc.Encode(data); err != nil {
		panic(err)
	}
	return buffer.String()
}

// EncodeYAML renders any struct data as YAML. The data is round-tripped
// through JSON first so both encodings honor the same field tags, and
// yaml.Unmarshal is used for the intermediate object because it preserves
// integer types where encoding/json would widen everything to float64.
func EncodeYAML(data any) string {
	var intermediate interface{}
	if err := yaml.Unmarshal([]byte(EncodeJSON(data)), &intermediate); err != nil {
		panic("unable to render yaml")
	}
	out, err := yaml.Marshal(intermediate)
	if err != nil {
		panic("unable to render yaml")
	}
	return string(out)
}

// Table renders a slice of structs as a borderless column-aligned table.
// Only string fields carrying a `table` tag are shown.
//
//	type Row struct {
//	    ID     string `table:"ID"`
//	    Reason string `table:"Reason"`
//	}
func Table[T any](data []T) string {
	var headers []string
	var rows [][]string
	for _, item := range data {
		structValue := reflect.Indirect(reflect.ValueOf(item))
		headers = headers[:0]
		var row []string
		for i := 0; i < structValue.NumField(); i++ {
			tag := structValue.Type().Field(i).Tag.Get("table")
			if tag == "" {
				continue
			}
			headers = append(headers, tag)
			row = append(row, structValue.Field(i).String())
		}
		rows = append(rows, row)
	}
	out := bytes.Buffer{}
	table := tablewriter.NewWriter(&out)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
	return out.String()
}
