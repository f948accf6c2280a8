package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"已定义变量取环境值", "host: ${TEST_DB_HOST}", "host: db.internal"},
		{"已定义变量忽略默认值", "host: ${TEST_DB_HOST:localhost}", "host: db.internal"},
		{"未定义变量取默认值", "port: ${TEST_DB_PORT:5432}", "port: 5432"},
		{"默认值可以为空串", "password: ${TEST_DB_PASS:}", "password: "},
		{"无默认值时保留原文", "key: ${TEST_MISSING}", "key: ${TEST_MISSING}"},
		{"同行多个占位符", "${TEST_DB_HOST}:${TEST_DB_PORT:5432}", "db.internal:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.input))
		})
	}
}
