package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		param string
		want  []DBOrdering
	}{
		{param: "", want: nil},
		{param: "lastName", want: []DBOrdering{{Field: "lastName", Ascending: true}}},
		{
			param: " role , -createdAt,,-",
			want:  []DBOrdering{{Field: "role", Ascending: true}, {Field: "createdAt", Ascending: false}},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.param, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseOrdering(tc.param))
		})
	}
}

func TestOrderBy(t *testing.T) {
	columns := map[string]string{"firstName": "first_name", "createdAt": "created_at"}

	assert.Equal(t, "created_at DESC, first_name ASC, id ASC",
		OrderBy(ParseOrdering("-createdAt,password,firstName"), columns, "first_name ASC"))
	assert.Equal(t, "first_name ASC, id ASC", OrderBy(ParseOrdering("password"), columns, "first_name ASC"))
	assert.Equal(t, "first_name ASC, id ASC", OrderBy(nil, columns, "first_name ASC"))
}
