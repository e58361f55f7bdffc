package repo

import (
	"fmt"
	"strings"
	"time"

	"videoads/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// placeholder renders the n-th (1-based) bind parameter of a dialect. Both
// dialects use numbered parameters so one value can be referenced twice.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(n int) string { return fmt.Sprintf("?%d", n) }

// prepareInsert normalizes fields for a new record: status defaults to
// in_progress and both timestamps default to now.
func prepareInsert(fields domain.Fields, now time.Time) (domain.Fields, error) {
	if _, ok := fields[domain.ColID]; ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrImmutableField, domain.ColID)
	}
	norm, err := fields.Normalize()
	if err != nil {
		return nil, err
	}
	stamp := now.UTC().Format(domain.TimestampLayout)
	if _, ok := norm[domain.ColStatus]; !ok {
		norm[domain.ColStatus] = string(domain.JobStatusInProgress)
	}
	if v, ok := norm[domain.ColCreatedAt]; !ok || v == nil {
		norm[domain.ColCreatedAt] = stamp
	}
	if v, ok := norm[domain.ColUpdatedAt]; !ok || v == nil {
		norm[domain.ColUpdatedAt] = stamp
	}
	return norm, nil
}

// prepareUpdate normalizes fields for an in-place update. The identity and
// creation time of a record never change.
func prepareUpdate(fields domain.Fields) (domain.Fields, error) {
	if len(fields) == 0 {
		return nil, domain.ErrEmptyUpdate
	}
	for _, col := range []string{domain.ColID, domain.ColCreatedAt} {
		if _, ok := fields[col]; ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrImmutableField, col)
		}
	}
	return fields.Normalize()
}

// buildInsert completes an insert prefix with the column list of fields.
func buildInsert(prefix string, fields domain.Fields, ph placeholder) (string, []any) {
	cols := fields.Columns()
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		marks[i] = ph(i + 1)
		args[i] = fields[col]
	}
	query := fmt.Sprintf("%s (%s)\nvalues (%s)\nreturning id;",
		prefix, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return query, args
}

// buildUpdate completes an update prefix. updated_at only moves when a given
// column actually changes, so repeating an update leaves the row untouched.
// A terminal row only matches when the update changes none of its columns.
func buildUpdate(prefix string, id int64, fields domain.Fields, now time.Time, ph placeholder, distinct string) (string, []any) {
	cols := fields.Columns()
	sets := make([]string, 0, len(cols)+1)
	diffs := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+4)

	for _, col := range cols {
		args = append(args, fields[col])
		mark := ph(len(args))
		sets = append(sets, fmt.Sprintf("%s = %s", col, mark))
		if col != domain.ColUpdatedAt {
			diffs = append(diffs, fmt.Sprintf("%s %s %s", col, distinct, mark))
		}
	}

	changed := strings.Join(diffs, " or ")
	if _, explicit := fields[domain.ColUpdatedAt]; !explicit {
		args = append(args, now.UTC().Format(domain.TimestampLayout))
		sets = append(sets, fmt.Sprintf("updated_at = case when %s then %s else updated_at end",
			changed, ph(len(args))))
	}

	args = append(args, id)
	where := fmt.Sprintf("where id = %s and (status = '%s'", ph(len(args)), domain.JobStatusInProgress)
	if changed != "" {
		where += fmt.Sprintf(" or not (%s)", changed)
	}
	where += ")"

	query := fmt.Sprintf("%s\n  %s\n%s;", prefix, strings.Join(sets, ",\n  "), where)
	return query, args
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
