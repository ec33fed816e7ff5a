package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fiquest/internal/core"
)

// accountFlag collects repeated name=actual[:projected] values.
type accountFlag map[string]core.AccountValue

func (a accountFlag) String() string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		v := a[n]
		parts = append(parts, fmt.Sprintf("%s=%s:%s", n,
			strconv.FormatFloat(v.Actual, 'f', -1, 64),
			strconv.FormatFloat(v.Projected, 'f', -1, 64)))
	}
	return strings.Join(parts, ",")
}

func (a accountFlag) Set(s string) error {
	name, values, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("account %q: want name=actual[:projected]", s)
	}
	actualStr, projectedStr, hasProjected := strings.Cut(values, ":")

	actual, err := strconv.ParseFloat(strings.TrimSpace(actualStr), 64)
	if err != nil {
		return fmt.Errorf("account %q: bad actual value: %w", name, err)
	}
	var projected float64
	if hasProjected {
		projected, err = strconv.ParseFloat(strings.TrimSpace(projectedStr), 64)
		if err != nil {
			return fmt.Errorf("account %q: bad projected value: %w", name, err)
		}
	}
	a[name] = core.AccountValue{Actual: actual, Projected: projected}
	return nil
}
