package form

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAddress struct {
	Zip string `json:"zip" validate:"notblank"`
}

type testForm struct {
	Name    string      `json:"name" validate:"notblank"`
	Email   string      `json:"email" validate:"notblank,mailbox"`
	Kind    string      `json:"kind" validate:"oneof=a b"`
	Address testAddress `json:"address"`
}

var testMessages = Messages{
	"name":           "Name is required",
	"email.notblank": "Email is required",
	"email.mailbox":  "Please enter a valid email address",
}

func TestValidator_Check(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		err := v.Check(testForm{Name: "Ann", Email: "ann@example.com", Kind: "a", Address: testAddress{Zip: "1"}}, testMessages)
		require.NoError(t, err)
	})

	t.Run("field scoped messages", func(t *testing.T) {
		err := v.Check(testForm{Name: "  ", Email: "ann@", Kind: "c"}, testMessages)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldErrors{
			"name":  "Name is required",
			"email": "Please enter a valid email address",
			"kind":  "kind is invalid",
			"zip":   "zip is invalid",
		}, verr.Fields)
		assert.Equal(t, "invalid form fields: email, kind, name, zip", verr.Error())
	})

	t.Run("blank email uses required message", func(t *testing.T) {
		err := v.Check(testForm{Name: "Ann", Kind: "b", Address: testAddress{Zip: "1"}}, testMessages)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldErrors{"email": "Email is required"}, verr.Fields)
	})
}

func TestIsMailbox(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"first.last@sub.example.org", true},
		{"", false},
		{"@example.com", false},
		{"a@@example.com", false},
		{"a@b@example.com", false},
		{"a@example", false},
		{"a@.com", false},
		{"a@com.", false},
		{"a b@example.com", false},
		{"ab@example.com ", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMailbox(tt.in))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+14048895545", NormalizePhone("(404) 889-5545", ""))
	assert.Equal(t, "+442071838750", NormalizePhone("+44 20 7183 8750", "US"))
	assert.Equal(t, "call me", NormalizePhone("  call me ", ""))
	assert.Equal(t, "", NormalizePhone("   ", ""))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Deliver to back door", StripHTML("Deliver to <b>back</b> door"))
	assert.Equal(t, "Hi  there", StripHTML("Hi <script>alert(1)</script> there"))
	assert.Equal(t, "Tom & Jerry", StripHTML("Tom &amp; Jerry"))
	assert.Equal(t, "plain", StripHTML("  plain "))
}
