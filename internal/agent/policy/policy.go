// Package policy decides, from the CV record alone, which detail to ask for next.
package policy

import (
	"strings"

	"github.com/voicecv-core/server/internal/agent/model"
)

// Field identifies the requirement a Question targets.
type Field string

const (
	FieldName              Field = "personal_info.name"
	FieldEmail             Field = "personal_info.email"
	FieldPhone             Field = "personal_info.phone"
	FieldAddress           Field = "personal_info.address"
	FieldEducation         Field = "education"
	FieldDegree            Field = "education.degree"
	FieldInstitute         Field = "education.institute"
	FieldEducationStart    Field = "education.start_year"
	FieldEducationEnd      Field = "education.end_year"
	FieldHasExperience     Field = "experience"
	FieldRole              Field = "experience.role"
	FieldCompany           Field = "experience.company"
	FieldExperienceStart   Field = "experience.start_date"
	FieldExperienceEnd     Field = "experience.end_date"
	FieldExperienceDetails Field = "experience.description"
	FieldSkills            Field = "skills"
	FieldProjects          Field = "projects"
	FieldCertifications    Field = "certifications"
	FieldProjectDetail     Field = "projects.detail"
)

// Question is the next unmet requirement and the text used to ask for it.
type Question struct {
	Field Field
	Text  string
}

// Question texts.
const (
	AskName              = "What is your full name?"
	AskEmail             = "What is your email address?"
	AskPhone             = "What is your phone number?"
	AskAddress           = "Where do you live? Please share your city or address."
	AskEducation         = "What is your highest qualification? For example PUC, Diploma, ITI or a Degree."
	AskDegree            = "Which degree or course did you study?"
	AskInstitute         = "Which college or institute did you study at?"
	AskEducationStart    = "In which year did you start this course?"
	AskEducationEnd      = "In which year did you finish (or will you finish) this course?"
	AskHasExperience     = "Do you have any work experience? If yes, please tell me your role and the company you worked for."
	AskRole              = "What was your role or job title?"
	AskCompany           = "Which company did you work for?"
	AskExperienceStart   = "When did you start working there?"
	AskExperienceEnd     = "When did you stop working there? Say 'present' if you still work there."
	AskExperienceDetails = "What were your main responsibilities in this job?"
	AskSkills            = "What skills do you have? For example tools, machines, software or languages you know."
	AskProjects          = "Have you worked on any projects? Please tell me the project name and what you did."
	AskCertifications    = "Do you have any certifications? Please share the name, issuer, and year."
	AskProjectDetail     = "Could you tell me more about your project, such as what you built and which tools or technologies you used?"
)

type check struct {
	field Field
	text  string
	unmet func(cv *model.CVRecord) bool
}

// checks is a strict priority list; the first unmet entry wins.
var checks = []check{
	{FieldName, AskName, func(cv *model.CVRecord) bool { return blank(cv.PersonalInfo.Name) }},
	{FieldEmail, AskEmail, func(cv *model.CVRecord) bool { return blank(cv.PersonalInfo.Email) }},
	{FieldPhone, AskPhone, func(cv *model.CVRecord) bool { return blank(cv.PersonalInfo.Phone) }},
	{FieldAddress, AskAddress, func(cv *model.CVRecord) bool { return blank(cv.PersonalInfo.Address) }},
	{FieldEducation, AskEducation, func(cv *model.CVRecord) bool { return len(cv.Education) == 0 }},
	{FieldDegree, AskDegree, func(cv *model.CVRecord) bool { return blank(cv.Education[0].Degree) }},
	{FieldInstitute, AskInstitute, func(cv *model.CVRecord) bool { return blank(cv.Education[0].Institute) }},
	{FieldEducationStart, AskEducationStart, func(cv *model.CVRecord) bool { return blank(cv.Education[0].StartYear) }},
	{FieldEducationEnd, AskEducationEnd, func(cv *model.CVRecord) bool { return blank(cv.Education[0].EndYear) }},
	{FieldHasExperience, AskHasExperience, func(cv *model.CVRecord) bool {
		return len(cv.Experience) == 0 && !cv.Meta.SkipExperience
	}},
	{FieldRole, AskRole, func(cv *model.CVRecord) bool { return hasExperience(cv) && blank(cv.Experience[0].Role) }},
	{FieldCompany, AskCompany, func(cv *model.CVRecord) bool { return hasExperience(cv) && blank(cv.Experience[0].Company) }},
	{FieldExperienceStart, AskExperienceStart, func(cv *model.CVRecord) bool {
		return hasExperience(cv) && blank(cv.Experience[0].StartDate)
	}},
	{FieldExperienceEnd, AskExperienceEnd, func(cv *model.CVRecord) bool {
		return hasExperience(cv) && blank(cv.Experience[0].EndDate)
	}},
	{FieldExperienceDetails, AskExperienceDetails, func(cv *model.CVRecord) bool {
		return hasExperience(cv) && blank(cv.Experience[0].Description)
	}},
	{FieldSkills, AskSkills, func(cv *model.CVRecord) bool { return cv.Skills.IsEmpty() }},
	{FieldProjects, AskProjects, func(cv *model.CVRecord) bool { return len(cv.Projects) == 0 }},
	{FieldCertifications, AskCertifications, func(cv *model.CVRecord) bool {
		return len(cv.Certifications) == 0 && !cv.Meta.SkipCertifications
	}},
	{FieldProjectDetail, AskProjectDetail, func(cv *model.CVRecord) bool {
		return len(cv.Projects) > 0 && !cv.Meta.ProjectsConfirmed
	}},
}

// Next returns the first unmet requirement of cv. ok is false once the
// record is complete.
func Next(cv model.CVRecord) (q Question, ok bool) {
	for _, c := range checks {
		if c.unmet(&cv) {
			return Question{Field: c.field, Text: c.text}, true
		}
	}
	return Question{}, false
}

// Complete reports whether no requirement is left.
func Complete(cv model.CVRecord) bool {
	_, ok := Next(cv)
	return !ok
}

func hasExperience(cv *model.CVRecord) bool {
	return len(cv.Experience) > 0
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
