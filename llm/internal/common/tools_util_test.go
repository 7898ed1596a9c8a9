package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatToolErrorJSONEmptyMessage(t *testing.T) {
	assert.Equal(t, "{}", FormatToolErrorJSON(""))
}

func TestFormatToolErrorJSONEncodesMessage(t *testing.T) {
	out := FormatToolErrorJSON("file not found")
	assert.JSONEq(t, `{"error":"file not found"}`, out)
}
