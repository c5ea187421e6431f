package utils_test

import (
	"strings"
	"testing"

	"chatform-server/internal/utils"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"What's your name?", "whats_your_name"},
		{"Email address", "email_address"},
		{"  Destination?  ", "destination"},
		{"Budget (USD)", "budget_usd"},
		{"UPPER case", "upper_case"},
		{"múltiple wörds", "múltiple_wörds"},
		{"a--b__c", "a_b_c"},
		{"", ""},
		{"???", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, utils.Slugify(tc.in), "input %q", tc.in)
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("question ", 20)
	got := utils.Slugify(long)
	assert.LessOrEqual(t, len(got), utils.MaxKeyLength)
	assert.False(t, strings.HasSuffix(got, "_"))
}

func TestURLSlug(t *testing.T) {
	assert.Equal(t, "customer-feedback", utils.URLSlug("Customer Feedback"))
	assert.Equal(t, "whats-new", utils.URLSlug("What's New?"))
}
