// Package customerimport reads customer master data from JSON or XLSX exports.
package customerimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"pointake/internal/domain"
)

type record struct {
	CustomerID    string            `json:"customer_id"`
	CustomerNames []string          `json:"customer_names"`
	SalesOrg      string            `json:"sales_org"`
	ShipTo        map[string]string `json:"ship_to"`
}

// ParseJSON accepts either an array of customer records or an object keyed by
// customer id whose values omit the id. Records without an id or a name are rejected.
func ParseJSON(r io.Reader) ([]domain.Customer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var records []record
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode customer array: %w", err)
		}
	} else {
		var keyed map[string]record
		if err := json.Unmarshal(data, &keyed); err != nil {
			return nil, fmt.Errorf("decode customer object: %w", err)
		}
		ids := make([]string, 0, len(keyed))
		for id := range keyed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			rec := keyed[id]
			rec.CustomerID = id
			records = append(records, rec)
		}
	}

	out := make([]domain.Customer, 0, len(records))
	for i, rec := range records {
		c, err := rec.toCustomer()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r record) toCustomer() (domain.Customer, error) {
	id := strings.TrimSpace(r.CustomerID)
	var names []string
	for _, n := range r.CustomerNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if id == "" || len(names) == 0 {
		return domain.Customer{}, fmt.Errorf("%w: %q", domain.ErrInvalidCustomer, id)
	}
	shipTo := r.ShipTo
	if shipTo == nil {
		shipTo = map[string]string{}
	}
	return domain.Customer{
		CustomerID:    id,
		CustomerNames: names,
		SalesOrg:      strings.TrimSpace(r.SalesOrg),
		ShipTo:        shipTo,
	}, nil
}

// Sheet columns: customer_id | names (";"-separated) | sales_org | ship_to_code | ship_to_address.
const (
	colID = iota
	colNames
	colSalesOrg
	colShipToCode
	colShipToAddress
)

// ParseWorkbook reads customers from a sheet (the first one when sheet is empty).
// The first row is a header. Rows repeating a customer id add ship-to entries and
// names to the earlier row.
func ParseWorkbook(f *excelize.File, sheet string) ([]domain.Customer, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	index := make(map[string]int)
	var out []domain.Customer
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		id := strings.TrimSpace(cellVal(row, colID))
		if id == "" {
			continue
		}

		pos, seen := index[id]
		if !seen {
			pos = len(out)
			index[id] = pos
			out = append(out, domain.Customer{CustomerID: id, ShipTo: map[string]string{}})
		}
		c := &out[pos]

		for _, n := range strings.Split(cellVal(row, colNames), ";") {
			if n = strings.TrimSpace(n); n != "" && !contains(c.CustomerNames, n) {
				c.CustomerNames = append(c.CustomerNames, n)
			}
		}
		if so := strings.TrimSpace(cellVal(row, colSalesOrg)); so != "" {
			c.SalesOrg = so
		}
		if code := strings.TrimSpace(cellVal(row, colShipToCode)); code != "" {
			c.ShipTo[code] = strings.TrimSpace(cellVal(row, colShipToAddress))
		}
	}

	for i := range out {
		if len(out[i].CustomerNames) == 0 {
			return nil, fmt.Errorf("%w: %q has no names", domain.ErrInvalidCustomer, out[i].CustomerID)
		}
	}
	return out, nil
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
