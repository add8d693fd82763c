package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The panel API is loose about scalar types: the same field arrives as a
// JSON number on some endpoints and a quoted string on others. FlexInt and
// FlexFloat accept both.

// FlexInt decodes from a JSON number, numeric string, or null.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = 0
		return nil
	}
	unquoted := strings.Trim(string(trimmed), `"`)
	if unquoted == "" {
		*f = 0
		return nil
	}
	parsed, err := strconv.ParseInt(unquoted, 10, 64)
	if err != nil {
		// some panels send counts as floats ("3572.0")
		asFloat, floatErr := strconv.ParseFloat(unquoted, 64)
		if floatErr != nil {
			return fmt.Errorf("parse int %q: %w", unquoted, err)
		}
		parsed = int64(asFloat)
	}
	*f = FlexInt(parsed)
	return nil
}

// Int returns the native value.
func (f FlexInt) Int() int {
	return int(f)
}

// Int64 returns the native value.
func (f FlexInt) Int64() int64 {
	return int64(f)
}

// FlexFloat decodes from a JSON number, numeric string, or null.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = 0
		return nil
	}
	unquoted := strings.Trim(string(trimmed), `"`)
	if unquoted == "" {
		*f = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(unquoted, 64)
	if err != nil {
		return fmt.Errorf("parse float %q: %w", unquoted, err)
	}
	*f = FlexFloat(parsed)
	return nil
}

// Float64 returns the native value.
func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// ServiceEntry is one sellable service in the provider's list.
type ServiceEntry struct {
	Service     FlexInt   `json:"service"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Rate        FlexFloat `json:"rate"`
	Min         FlexInt   `json:"min"`
	Max         FlexInt   `json:"max"`
	Refill      bool      `json:"refill"`
	Cancel      bool      `json:"cancel"`
}

// Balance is the reseller account balance at the provider.
type Balance struct {
	Balance  FlexFloat `json:"balance"`
	Currency string    `json:"currency"`
}

// OrderStatus is the provider's view of a submitted order. StartCount and
// Remains are pointers because the panel omits them on some responses, and
// an omitted count is not the same as a zero one.
type OrderStatus struct {
	Charge     FlexFloat `json:"charge"`
	StartCount *FlexInt  `json:"start_count"`
	Status     string    `json:"status"`
	Remains    *FlexInt  `json:"remains"`
	Currency   string    `json:"currency"`
}

// OrderStatusResult is one entry of a batch status response. Unknown order
// ids come back with a per-entry error instead of a status.
type OrderStatusResult struct {
	OrderStatus
	Error string `json:"error"`
}

func (r OrderStatusResult) Err() error {
	if r.Error == "" {
		return nil
	}
	return fmt.Errorf("provider: %s", r.Error)
}

// RefillReceipt acknowledges a refill request.
type RefillReceipt struct {
	Order  FlexInt         `json:"order"`
	Refill json.RawMessage `json:"refill"`
}

// RefillID extracts the refill id, or an error when the provider rejected
// this order's refill inside a batch response.
func (r RefillReceipt) RefillID() (int64, error) {
	var id FlexInt
	if err := json.Unmarshal(r.Refill, &id); err == nil {
		return id.Int64(), nil
	}
	var nested struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Refill, &nested); err == nil && nested.Error != "" {
		return 0, fmt.Errorf("provider: %s", nested.Error)
	}
	return 0, fmt.Errorf("provider: unrecognized refill payload %s", string(r.Refill))
}

// RefillStatus reports progress of one refill.
type RefillStatus struct {
	Refill FlexInt `json:"refill"`
	Status string  `json:"status"`
}

// CancelReceipt is one entry of a batch cancel response.
type CancelReceipt struct {
	Order  FlexInt         `json:"order"`
	Cancel json.RawMessage `json:"cancel"`
}
