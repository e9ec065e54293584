package cv

// Section names inside a CV payload.
const (
	SectionPersonalInfo   = "personal_info"
	SectionSummary        = "summary"
	SectionEducation      = "education"
	SectionExperience     = "experience"
	SectionSkills         = "skills"
	SectionProjects       = "projects"
	SectionCertifications = "certifications"
	SectionMeta           = "meta"
)

// alias is an ordered alias → canonical key list. Order decides which alias
// wins when several are present.
type alias struct {
	from string
	to   string
}

var sectionAliases = []alias{
	{"personal", SectionPersonalInfo},
	{"contact_info", SectionPersonalInfo},
	{"personal_details", SectionPersonalInfo},
	{"work_experience", SectionExperience},
	{"work", SectionExperience},
	{"employment", SectionExperience},
	{"certificates", SectionCertifications},
	{"objective", SectionSummary},
	{"profile", SectionSummary},
}

var personalAliases = []alias{
	{"full_name", "name"},
	{"firstname", "name"},
	{"first_name", "name"},
	{"last_name", "name"},
	{"mail", "email"},
	{"email_address", "email"},
	{"mobile", "phone"},
	{"phone_number", "phone"},
	{"contact_number", "phone"},
	{"contact", "phone"},
	{"location", "address"},
	{"current_location", "address"},
	{"city", "address"},
	{"github_url", "github"},
	{"github_username", "github"},
	{"linkedin_url", "linkedin"},
	{"website", "portfolio"},
	{"portfolio_url", "portfolio"},
}

var educationAliases = []alias{
	{"college", "institute"},
	{"school", "institute"},
	{"university", "institute"},
	{"institution", "institute"},
	{"qualification", "degree"},
	{"course", "degree"},
	{"start", "start_year"},
	{"from", "start_year"},
	{"end", "end_year"},
	{"to", "end_year"},
	{"year", "end_year"},
	{"passing_year", "end_year"},
	{"cgpa", "gpa"},
	{"percentage", "gpa"},
	{"grade", "gpa"},
}

var experienceAliases = []alias{
	{"employer", "company"},
	{"organization", "company"},
	{"organisation", "company"},
	{"title", "role"},
	{"position", "role"},
	{"designation", "role"},
	{"from", "start_date"},
	{"start", "start_date"},
	{"to", "end_date"},
	{"end", "end_date"},
	{"responsibilities", "description"},
	{"details", "description"},
}

var projectAliases = []alias{
	{"title", "project_name"},
	{"name", "project_name"},
	{"tech", "technologies"},
	{"tech_stack", "technologies"},
	{"tools", "technologies"},
	{"skills", "technologies"},
	{"year", "date"},
}

var certificationAliases = []alias{
	{"certificate", "name"},
	{"certification", "name"},
	{"title", "name"},
	{"org", "issuer"},
	{"organization", "issuer"},
	{"issued_by", "issuer"},
	{"authority", "issuer"},
	{"date", "year"},
}

// applyAliases copies the first populated alias into each canonical key that
// is still empty. Alias keys are removed afterwards.
func applyAliases(m map[string]any, aliases []alias) {
	for _, a := range aliases {
		v, ok := m[a.from]
		if !ok {
			continue
		}
		delete(m, a.from)
		if isEmpty(m[a.to]) && !isEmpty(v) {
			m[a.to] = v
		}
	}
}
