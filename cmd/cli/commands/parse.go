package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechorley/tamilschool-volunteers/pkg/core/services"
)

func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got: %s", name, value)
	}
	return id, nil
}

func parseIDs(name string, values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := parseID(name, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseServiceSelection reads "<service_id>" or "<service_id>:<date>,<date>"
func parseServiceSelection(value string) (services.ServiceSelection, error) {
	idPart, datePart, _ := strings.Cut(value, ":")
	id, err := parseID("service id", idPart)
	if err != nil {
		return services.ServiceSelection{}, err
	}

	sel := services.ServiceSelection{ServiceID: id}
	for _, d := range strings.Split(datePart, ",") {
		if d = strings.TrimSpace(d); d != "" {
			sel.Dates = append(sel.Dates, d)
		}
	}
	return sel, nil
}

// parseDateSelection reads "<volunteer_id>=<subservice_id>" with an optional ":done" suffix
func parseDateSelection(value string) (int64, services.Selection, error) {
	volPart, rest, ok := strings.Cut(value, "=")
	if !ok {
		return 0, services.Selection{}, fmt.Errorf("selection must look like <volunteer_id>=<subservice_id>[:done], got: %s", value)
	}

	volunteerID, err := parseID("volunteer id", volPart)
	if err != nil {
		return 0, services.Selection{}, err
	}

	subPart, flag, hasFlag := strings.Cut(rest, ":")
	if hasFlag && flag != "done" {
		return 0, services.Selection{}, fmt.Errorf("unknown selection flag %q, expected done", flag)
	}

	subserviceID, err := parseID("sub-service id", subPart)
	if err != nil {
		return 0, services.Selection{}, err
	}

	return volunteerID, services.Selection{SubserviceID: subserviceID, Completed: hasFlag}, nil
}
