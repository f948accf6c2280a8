package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTemplateID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"空值回落默认模板", "", "builtin_1"},
		{"纯空白回落默认模板", "   ", "builtin_1"},
		{"数字别名", "2", "builtin_2"},
		{"带空格别名", "builtin 3", "builtin_3"},
		{"主题别名", "theme_2", "builtin_2"},
		{"紧凑主题别名", "theme3", "builtin_3"},
		{"规范 ID 原样保留", "builtin_5", "builtin_5"},
		{"corporate 模板", "corporate", "corporate"},
		{"大小写与空白归一", "  Pitch  ", "pitch"},
		{"下划线写法命中空格别名", "builtin_2", "builtin_2"},
		{"未知值回落默认模板", "fancy_gradient", "builtin_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTemplateID(tt.input))
		})
	}
}
