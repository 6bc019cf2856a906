package pagination

import (
	"encoding/json"
	"strconv"
)

// RangeItem is a page number in an elided range, or EllipsisItem.
type RangeItem int

// EllipsisItem marks a run of skipped pages.
const EllipsisItem RangeItem = 0

func (r RangeItem) IsEllipsis() bool {
	return r == EllipsisItem
}

func (r RangeItem) String() string {
	if r.IsEllipsis() {
		return Ellipsis
	}
	return strconv.Itoa(int(r))
}

// MarshalJSON writes page numbers as JSON numbers and the ellipsis as a string.
func (r RangeItem) MarshalJSON() ([]byte, error) {
	if r.IsEllipsis() {
		return json.Marshal(Ellipsis)
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (r *RangeItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = EllipsisItem
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RangeItem(n)
	return nil
}
