package engine

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"sprintboard/internal/domain"
)

var bitVectorRe = regexp.MustCompile(`^[01]{4}$`)

// ParseValue converts command line text into the value type a task field
// takes. Locations are resolved by log id inside tx. Unknown keys pass the
// text through so the task reports them.
func (e *Engine) ParseValue(ctx context.Context, tx *sql.Tx, key, raw string) (any, error) {
	f, ok := domain.ParseField(key)
	if !ok {
		return raw, nil
	}
	switch f {
	case domain.FieldStoryPoint:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("storyPoint %q is not a number", raw)
		}
		return v, nil
	case domain.FieldPriority:
		return domain.ParsePriority(raw)
	case domain.FieldStatus:
		return domain.ParseStatus(raw)
	case domain.FieldTags:
		if bitVectorRe.MatchString(raw) {
			return domain.ParseBitVector(raw)
		}
		return domain.ParseTagList(raw)
	case domain.FieldLocation:
		l, err := e.Repo.GetLogTx(ctx, tx, raw)
		if err != nil {
			return nil, fmt.Errorf("location %s: %w", raw, err)
		}
		return observe(l), nil
	}
	return raw, nil
}
