package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Blank(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"spaces and tabs", "  \t  ", true},
		{"newlines only", "\n\r\n", true},
		{"real text", "01/05 Winco Foods -42.17", false},
		{"text with padding", "  total  \n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Page{Number: 1, Text: tt.text}
			assert.Equal(t, tt.want, p.Blank())
		})
	}
}
