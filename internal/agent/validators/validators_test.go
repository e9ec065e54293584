package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicecv-core/server/internal/agent/model"
)

func TestEmail(t *testing.T) {
	v := New("IN")
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Asha.Rao@Gmail.com", "asha.rao@gmail.com", true},
		{"asha rao@gmail.con", "asharao@gmail.com", true},
		{"asha@gmial.com", "asha@gmail.com", true},
		{"asha@yahoo.co", "asha@yahoo.com", true},
		{"asha at gmail", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := v.Email(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPhone(t *testing.T) {
	v := New("IN")
	got, ok := v.Phone("9876543210")
	assert.True(t, ok)
	assert.Equal(t, "+91 98765 43210", got)

	got, ok = v.Phone("+91-98765-43210")
	assert.True(t, ok)
	assert.Equal(t, "+91 98765 43210", got)

	got, ok = v.Phone("+1 650-253-0000")
	assert.True(t, ok)
	assert.Equal(t, "+1 650-253-0000", got)

	_, ok = v.Phone("12")
	assert.False(t, ok)
	_, ok = v.Phone("call me")
	assert.False(t, ok)
}

func TestName(t *testing.T) {
	v := New("")
	assert.Equal(t, "Asha Rao", v.Name("  asha   RAO "))
	assert.Equal(t, "Abdul Khadar Basha", v.Name("abdul kadar bash"))
	assert.Equal(t, "", v.Name(""))
}

func TestProfileLinks(t *testing.T) {
	v := New("IN")
	assert.Equal(t, "https://github.com/asharao", v.Github("asharao"))
	assert.Equal(t, "https://github.com/asharao", v.Github("@asharao"))
	assert.Equal(t, "https://github.com/asharao", v.Github("github.com/asharao"))
	assert.Equal(t, "https://linkedin.com/in/asha-rao", v.Linkedin("asha-rao"))
	assert.Equal(t, "https://www.linkedin.com/in/asha", v.Linkedin("https://www.linkedin.com/in/asha"))
	assert.Equal(t, "", v.Github(""))
}

func TestURL(t *testing.T) {
	v := New("IN")
	got, ok := v.URL("asha.dev")
	assert.True(t, ok)
	assert.Equal(t, "https://asha.dev", got)

	_, ok = v.URL("not a url")
	assert.False(t, ok)
	_, ok = v.URL("localhost")
	assert.False(t, ok)
}

func TestCorrect(t *testing.T) {
	v := New("IN")
	got := v.Correct(model.PersonalInfo{
		Name:      "asha rao",
		Email:     "ASHA@gmail.con",
		Phone:     "98765 43210",
		Address:   "  Pune ",
		Github:    "asharao",
		Portfolio: "my site",
	})
	assert.Equal(t, model.PersonalInfo{
		Name:     "Asha Rao",
		Email:    "asha@gmail.com",
		Phone:    "+91 98765 43210",
		Address:  "Pune",
		Github:   "https://github.com/asharao",
		Linkedin: "",
	}, got)

	kept := v.Correct(model.PersonalInfo{Email: "not-an-email", Phone: "ext 12"})
	assert.Equal(t, "not-an-email", kept.Email)
	assert.Equal(t, "ext 12", kept.Phone)
}
