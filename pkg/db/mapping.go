package db

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// UnspecifiedService is the mapping key for dates whose service is unknown.
// It stands in for the null key of legacy rows; real service ids start at 1.
const UnspecifiedService int64 = 0

// legacyNullKey is how the unspecified service key was written in legacy JSON payloads
const legacyNullKey = "null"

// AssignedDates maps a service id to the ordered dates a volunteer selected for it.
// A key with an empty list is equivalent to an absent key.
type AssignedDates map[int64][]string

// Normalize returns a copy without empty lists and without repeated dates within a list.
// Returns nil when nothing remains.
func (a AssignedDates) Normalize() AssignedDates {
	var out AssignedDates
	for serviceID, dates := range a {
		seen := make(map[string]bool, len(dates))
		var kept []string
		for _, d := range dates {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			kept = append(kept, d)
		}
		if len(kept) == 0 {
			continue
		}
		if out == nil {
			out = make(AssignedDates)
		}
		out[serviceID] = kept
	}
	return out
}

// ServicesOn returns the service ids whose list contains date, ascending
func (a AssignedDates) ServicesOn(date string) []int64 {
	var ids []int64
	for serviceID, dates := range a {
		if slices.Contains(dates, date) {
			ids = append(ids, serviceID)
		}
	}
	slices.Sort(ids)
	return ids
}

// ServiceIDs returns the mapping keys, ascending
func (a AssignedDates) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(a))
	for serviceID := range a {
		ids = append(ids, serviceID)
	}
	slices.Sort(ids)
	return ids
}

// DecodeLegacyAssignedDates decodes a legacy assigned_dates column value.
// An empty payload decodes to nil. Any malformed payload returns ErrCorruptMapping.
func DecodeLegacyAssignedDates(payload string) (AssignedDates, error) {
	if payload == "" || payload == "null" {
		return nil, nil
	}

	var raw map[string][]string
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMapping, err)
	}

	out := make(AssignedDates, len(raw))
	for key, dates := range raw {
		serviceID, err := decodeKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptMapping, err)
		}
		out[serviceID] = append(out[serviceID], dates...)
	}
	return out.Normalize(), nil
}

func decodeKey(key string) (int64, error) {
	if key == legacyNullKey || key == "" {
		return UnspecifiedService, nil
	}
	serviceID, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("service key %q is not an id", key)
	}
	return serviceID, nil
}

// LegacyMapping resolves the date mapping held in the legacy volunteers columns.
// The JSON column wins when it decodes to a non-empty mapping; otherwise a scalar
// assigned date maps to {UnspecifiedService: [assignedDate]}. A corrupt JSON payload
// is treated as absent and reported through the returned error alongside the fallback.
func LegacyMapping(assignedDate, assignedDatesJSON string) (AssignedDates, error) {
	mapping, decodeErr := DecodeLegacyAssignedDates(assignedDatesJSON)
	if len(mapping) == 0 && assignedDate != "" {
		mapping = AssignedDates{UnspecifiedService: {assignedDate}}
	}
	return mapping, decodeErr
}
