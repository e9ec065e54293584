package model

import "encoding/json"

// LanguageAuto lets the assistant mirror the user's language.
const LanguageAuto = "auto"

type PersonalInfo struct {
	Name      string `json:"name" mapstructure:"name"`
	Email     string `json:"email" mapstructure:"email"`
	Phone     string `json:"phone" mapstructure:"phone"`
	Address   string `json:"address" mapstructure:"address"`
	Github    string `json:"github" mapstructure:"github"`
	Linkedin  string `json:"linkedin" mapstructure:"linkedin"`
	Portfolio string `json:"portfolio" mapstructure:"portfolio"`
}

type Education struct {
	Degree    string `json:"degree" mapstructure:"degree"`
	Institute string `json:"institute" mapstructure:"institute"`
	StartYear string `json:"start_year" mapstructure:"start_year"`
	EndYear   string `json:"end_year" mapstructure:"end_year"`
	GPA       string `json:"gpa" mapstructure:"gpa"`
}

type Experience struct {
	Company     string `json:"company" mapstructure:"company"`
	Role        string `json:"role" mapstructure:"role"`
	StartDate   string `json:"start_date" mapstructure:"start_date"`
	EndDate     string `json:"end_date" mapstructure:"end_date"`
	Description string `json:"description" mapstructure:"description"`
}

type Project struct {
	ProjectName  string   `json:"project_name" mapstructure:"project_name"`
	Description  string   `json:"description" mapstructure:"description"`
	Technologies []string `json:"technologies" mapstructure:"technologies"`
	Date         string   `json:"date" mapstructure:"date"`
}

type Certification struct {
	Name   string `json:"name" mapstructure:"name"`
	Issuer string `json:"issuer" mapstructure:"issuer"`
	Year   string `json:"year" mapstructure:"year"`
}

// Meta carries dialogue control state alongside the résumé data.
type Meta struct {
	SkipExperience     bool   `json:"skip_experience" mapstructure:"skip_experience"`
	SkipCertifications bool   `json:"skip_certifications" mapstructure:"skip_certifications"`
	ProjectsConfirmed  bool   `json:"projects_confirmed" mapstructure:"projects_confirmed"`
	ProjectDetailTurns int    `json:"project_detail_turns" mapstructure:"project_detail_turns"`
	PreferredLanguage  string `json:"preferred_language" mapstructure:"preferred_language"`
	Refined            bool   `json:"refined" mapstructure:"refined"`
}

// CVRecord is the canonical résumé accumulated over a session.
type CVRecord struct {
	PersonalInfo   PersonalInfo    `json:"personal_info"`
	Summary        string          `json:"summary"`
	Education      []Education     `json:"education"`
	Experience     []Experience    `json:"experience"`
	Skills         Skills          `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Meta           Meta            `json:"meta"`
}

// EmptyCV returns the template every new session starts from.
func EmptyCV() CVRecord {
	return CVRecord{
		Education:      []Education{},
		Experience:     []Experience{},
		Skills:         FlatSkills(),
		Projects:       []Project{},
		Certifications: []Certification{},
		Meta:           Meta{PreferredLanguage: LanguageAuto},
	}
}

// Clone returns a deep copy of the record.
func (r CVRecord) Clone() CVRecord {
	out := r
	out.Education = append([]Education{}, r.Education...)
	out.Experience = append([]Experience{}, r.Experience...)
	out.Certifications = append([]Certification{}, r.Certifications...)
	out.Projects = make([]Project, len(r.Projects))
	for i, p := range r.Projects {
		p.Technologies = append([]string{}, p.Technologies...)
		out.Projects[i] = p
	}
	out.Skills = r.Skills.Clone()
	return out
}

type cvRecordJSON CVRecord

// MarshalJSON encodes missing lists as [] rather than null.
func (r CVRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(cvRecordJSON(r.Clone()))
}

// UnmarshalJSON decodes a stored record, starting from the empty template.
func (r *CVRecord) UnmarshalJSON(data []byte) error {
	tmp := cvRecordJSON(EmptyCV())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*r = CVRecord(tmp).Clone()
	if r.Meta.PreferredLanguage == "" {
		r.Meta.PreferredLanguage = LanguageAuto
	}
	return nil
}
