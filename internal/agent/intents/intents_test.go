package intents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	askExperience     = "Do you have any work experience? If yes, please tell me your role and the company you worked for."
	askCertifications = "Do you have any certifications? Please share the name, issuer, and year."
	askProjects       = "Have you worked on any projects? Please tell me the project name and what you did."
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "no i don't have experience", Normalize("  No, I don’t have   experience!! "))
	assert.Equal(t, "नहीं", Normalize("नहीं।"))
	assert.Equal(t, "", Normalize("?!"))
}

func TestDeclineExperience(t *testing.T) {
	d := Default()
	tests := []struct {
		name string
		user string
		prev string
		want bool
	}{
		{"explicit english", "No, I don't have experience", askExperience, true},
		{"explicit without context", "I have no work experience yet", "", true},
		{"fresher", "I'm a fresher", askExperience, true},
		{"bare no after experience question", "no", askExperience, true},
		{"bare no after projects question", "no", askProjects, false},
		{"hindi", "मेरे पास कोई अनुभव नहीं है", "", true},
		{"romanized hindi", "mujhe koi anubhav nahi hai", "", true},
		{"bare hindi no", "नहीं", "क्या आपके पास कोई अनुभव है?", true},
		{"has experience", "Yes, I worked at Tata Motors for two years", askExperience, false},
		{"word boundary", "nobody asked", askExperience, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.user, tt.prev).Has(DeclineExperience))
		})
	}
}

func TestDeclineCertifications(t *testing.T) {
	d := Default()
	assert.True(t, d.Detect("no certificates", askCertifications).Has(DeclineCertifications))
	assert.True(t, d.Detect("No, I don't have any.", askCertifications).Has(DeclineCertifications))
	assert.True(t, d.Detect("nahi", askCertifications).Has(DeclineCertifications))
	assert.False(t, d.Detect("no certificates", askProjects).Has(DeclineCertifications))
	assert.False(t, d.Detect("Yes, CCNA from Cisco in 2021", askCertifications).Has(DeclineCertifications))
}

func TestIntent(t *testing.T) {
	d := Default()
	assert.Equal(t, Affirmative, d.Intent("Yes"))
	assert.Equal(t, Affirmative, d.Intent("ok!"))
	assert.Equal(t, Affirmative, d.Intent("please generate my resume"))
	assert.Equal(t, Negative, d.Intent("no"))
	assert.Equal(t, Negative, d.Intent("later"))
	assert.Equal(t, Negative, d.Intent("Don't generate it yet"))
	assert.Equal(t, Negative, d.Intent("hold on, one more thing"))
	assert.Equal(t, Signal(""), d.Intent("what is a CV?"))
	assert.Equal(t, Signal(""), d.Intent(""))
}

func TestAbout(t *testing.T) {
	d := Default()
	assert.True(t, d.About("Could you tell me more about your project, such as what you built?", TopicProjectDetail))
	assert.True(t, d.About("Any CERTIFICATIONS?", TopicCertifications))
	assert.False(t, d.About(askProjects, TopicExperience))
	assert.False(t, d.About("", TopicExperience))
}

func TestCustomRules(t *testing.T) {
	d := NewDetector([]Rule{{Signal: Affirmative, Phrase: "ಹೌದು", Match: Exact}}, nil)
	assert.Equal(t, Affirmative, d.Intent("ಹೌದು"))
	assert.Equal(t, Signal(""), d.Intent("yes"))
}
