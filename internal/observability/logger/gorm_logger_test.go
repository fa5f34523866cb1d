package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationFromSQL(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{sql: "SELECT * FROM payments WHERE id = ?", want: "SELECT"},
		{sql: "  insert into subscriptions (id) values (?)", want: "INSERT"},
		{sql: "WITH due AS (SELECT id FROM subscriptions) SELECT id FROM due", want: "SELECT"},
		{sql: "UPDATE payments SET status = ?", want: "UPDATE"},
		{sql: "", want: "UNKNOWN"},
		{sql: "VACUUM", want: "UNKNOWN"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, operationFromSQL(tc.sql), tc.sql)
	}
}
