/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

import (
	"time"

	"github.com/araddon/dateparse"
)

// WireDateLayout is the dd-mm-yyyy format the exchange expects in query
// parameters and emits in several payload fields.
const WireDateLayout = "02-01-2006"

// ParseDateOrZero returns a parsed time or zero if input is empty or "null".
func ParseDateOrZero(s string) (time.Time, error) {
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	return dateparse.ParseAny(s)
}

// FormatWireDate renders a date the way the exchange expects it on the wire.
func FormatWireDate(t time.Time) string {
	return t.Format(WireDateLayout)
}
