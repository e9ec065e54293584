// Package validators cleans up personal details captured from free speech:
// email typos, phone formatting, name casing and profile links.
package validators

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/voicecv-core/server/internal/agent/model"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

var domainTypos = map[string]string{
	"gmail.con":   "gmail.com",
	"gmail.co":    "gmail.com",
	"gmial.com":   "gmail.com",
	"gamil.com":   "gmail.com",
	"yahoo.con":   "yahoo.com",
	"yahoo.co":    "yahoo.com",
	"outlook.con": "outlook.com",
	"outlook.co":  "outlook.com",
	"hotmail.con": "hotmail.com",
}

// name parts that speech transcription commonly gets wrong
var nameCorrections = map[string]string{
	"kadar":  "Khadar",
	"khadar": "Khadar",
	"basha":  "Basha",
	"bash":   "Basha",
}

// Validator corrects personal info fields. Safe for concurrent use.
type Validator struct {
	region string
}

// New builds a Validator that parses national phone numbers in region (ISO 3166 alpha-2).
func New(region string) *Validator {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "IN"
	}
	return &Validator{region: region}
}

// Correct returns info with every non-empty field normalized. Values that
// cannot be corrected are kept as given, except an invalid portfolio link.
func (v *Validator) Correct(info model.PersonalInfo) model.PersonalInfo {
	return model.PersonalInfo{
		Name:      v.Name(info.Name),
		Email:     keep(info.Email, v.Email),
		Phone:     keep(info.Phone, v.Phone),
		Address:   strings.TrimSpace(info.Address),
		Github:    v.Github(info.Github),
		Linkedin:  v.Linkedin(info.Linkedin),
		Portfolio: v.portfolio(info.Portfolio),
	}
}

func (v *Validator) portfolio(raw string) string {
	out, _ := v.URL(raw)
	return out
}

func keep(raw string, fn func(string) (string, bool)) string {
	if out, ok := fn(raw); ok {
		return out
	}
	return strings.TrimSpace(raw)
}

// Email lowercases the address, drops spaces and fixes common domain typos.
func (v *Validator) Email(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	email = strings.ReplaceAll(email, " ", "")
	if at := strings.LastIndex(email, "@"); at >= 0 {
		if fixed, ok := domainTypos[email[at+1:]]; ok {
			email = email[:at+1] + fixed
		}
	}
	if !emailPattern.MatchString(email) {
		return "", false
	}
	return email, true
}

// Phone formats the number in international notation, e.g. "+91 98765 43210".
func (v *Validator) Phone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	num, err := phonenumbers.Parse(raw, v.region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), true
}

// Name title-cases each word and applies known spelling corrections.
func (v *Validator) Name(raw string) string {
	title := cases.Title(language.Und)
	parts := strings.Fields(raw)
	for i, p := range parts {
		if fixed, ok := nameCorrections[strings.ToLower(p)]; ok {
			parts[i] = fixed
			continue
		}
		parts[i] = title.String(p)
	}
	return strings.Join(parts, " ")
}

// URL adds a missing https scheme and checks the result has a dotted host.
func (v *Validator) URL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return "", false
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
		return "", false
	}
	return u.String(), true
}

// Github returns a github.com profile URL, building one from a bare username.
func (v *Validator) Github(raw string) string {
	return v.profile(raw, "github.com", "https://github.com/")
}

// Linkedin returns a linkedin.com profile URL, building one from a bare username.
func (v *Validator) Linkedin(raw string) string {
	return v.profile(raw, "linkedin.com", "https://linkedin.com/in/")
}

func (v *Validator) profile(raw, host, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, ok := v.URL(raw); ok && strings.Contains(strings.ToLower(u), host) {
		return u
	}
	user := strings.TrimPrefix(raw, "@")
	user = strings.TrimRight(user, "/")
	if i := strings.LastIndex(user, "/"); i >= 0 {
		user = user[i+1:]
	}
	if user == "" {
		return ""
	}
	return base + user
}
