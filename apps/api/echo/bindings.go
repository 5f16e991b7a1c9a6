package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ecole/core"
)

var orderingParam = "ordering"

// bindOrdering reads the ordering query parameter, e.g. "?ordering=role,-createdAt".
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	return core.ParseOrdering(ctx.QueryParam(orderingParam))
}

// bindBool parses an optional boolean input. It returns nil when value is empty.
func bindBool(field, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: field, Error: field + " must be a boolean"})
	}
	return &b, nil
}
