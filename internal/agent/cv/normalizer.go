// Package cv turns loosely shaped CV payloads produced by a language model
// into the canonical record and merges them into the session's record.
package cv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/voicecv-core/server/internal/agent/model"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// PersonalInfoValidator corrects personal details before they are stored.
type PersonalInfoValidator interface {
	Correct(info model.PersonalInfo) model.PersonalInfo
}

// Normalizer merges model output into a CV record. It never fails: values it
// cannot coerce are dropped and the rest of the payload still applies.
type Normalizer struct {
	validator PersonalInfoValidator
}

// NewNormalizer returns a Normalizer. A nil validator stores personal info as given.
func NewNormalizer(v PersonalInfoValidator) *Normalizer {
	return &Normalizer{validator: v}
}

type section struct {
	aliases []alias
	scalars []string
	lists   []string
	infer   func(raw, entry map[string]any)
}

var (
	educationSection = section{
		aliases: educationAliases,
		scalars: []string{"degree", "institute", "start_year", "end_year", "gpa"},
		infer:   inferEducation,
	}
	experienceSection = section{
		aliases: experienceAliases,
		scalars: []string{"company", "role", "start_date", "end_date", "description"},
		infer:   inferExperience,
	}
	projectSection = section{
		aliases: projectAliases,
		scalars: []string{"project_name", "description", "date"},
		lists:   []string{"technologies"},
	}
	certificationSection = section{
		aliases: certificationAliases,
		scalars: []string{"name", "issuer", "year"},
	}
	personalFields = []string{"name", "email", "phone", "address", "github", "linkedin", "portfolio"}
)

// Normalize merges incoming into a copy of existing. incoming may be a
// decoded JSON object, raw JSON bytes, a string holding JSON or a CVRecord.
func (n *Normalizer) Normalize(existing model.CVRecord, incoming any) (out model.CVRecord) {
	out = existing.Clone()
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "cv_normalizer").Msgf("panic recovered: %v", r)
			out = existing.Clone()
		}
	}()

	payload := toPayload(incoming)
	if len(payload) == 0 {
		return out
	}
	applyAliases(payload, sectionAliases)

	if v, ok := payload[SectionPersonalInfo]; ok {
		out.PersonalInfo = n.mergePersonal(out.PersonalInfo, v)
	}
	if s := scalarString(payload[SectionSummary]); s != "" {
		out.Summary = s
	}
	if v, ok := payload[SectionEducation]; ok {
		out.Education = mergeEntries(out.Education, normalizeEntries(v, educationSection))
	}
	if v, ok := payload[SectionExperience]; ok {
		out.Experience = mergeEntries(out.Experience, normalizeEntries(v, experienceSection))
	}
	if v, ok := payload[SectionProjects]; ok {
		out.Projects = mergeEntries(out.Projects, normalizeEntries(v, projectSection))
		for i := range out.Projects {
			if out.Projects[i].Technologies == nil {
				out.Projects[i].Technologies = []string{}
			}
		}
	}
	if v, ok := payload[SectionCertifications]; ok {
		out.Certifications = mergeEntries(out.Certifications, normalizeEntries(v, certificationSection))
	}
	if v, ok := payload[SectionSkills]; ok {
		out.Skills = model.MergeSkills(out.Skills, coerceSkills(v))
	}
	if v, ok := payload[SectionMeta]; ok {
		out.Meta = mergeMeta(out.Meta, asMap(v))
	}
	return out
}

// DecodePayload decodes a JSON CV object. Unlike a plain map decode it keeps
// the category order of categorized skills.
func DecodePayload(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return m, nil
	}
	for k, v := range fields {
		if !strings.EqualFold(strings.TrimSpace(k), SectionSkills) {
			continue
		}
		if t := bytes.TrimSpace(v); len(t) == 0 || t[0] != '{' {
			continue
		}
		var s model.Skills
		if err := json.Unmarshal(v, &s); err == nil {
			m[k] = s
		}
	}
	return m, nil
}

func toPayload(incoming any) map[string]any {
	switch t := incoming.(type) {
	case nil:
		return nil
	case map[string]any:
		return lowerKeys(t)
	case json.RawMessage:
		return decodePayloadBytes(t)
	case []byte:
		return decodePayloadBytes(t)
	case string:
		return decodePayloadBytes([]byte(t))
	case model.CVRecord:
		return recordPayload(t)
	case *model.CVRecord:
		if t == nil {
			return nil
		}
		return recordPayload(*t)
	}
	b, err := json.Marshal(incoming)
	if err != nil {
		logx.Warn().Err(err).Str("component", "cv_normalizer").Msg("unsupported payload type")
		return nil
	}
	return decodePayloadBytes(b)
}

func decodePayloadBytes(b []byte) map[string]any {
	m, err := DecodePayload(b)
	if err != nil {
		logx.Debug().Err(err).Str("component", "cv_normalizer").Msg("payload is not a JSON object")
		return nil
	}
	return lowerKeys(m)
}

func recordPayload(r model.CVRecord) map[string]any {
	m := decodePayloadBytes(mustJSON(r))
	if m != nil {
		m[SectionSkills] = r.Skills
	}
	return m
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (n *Normalizer) mergePersonal(existing model.PersonalInfo, v any) model.PersonalInfo {
	raw := asMap(v)
	if raw == nil {
		return existing
	}
	if isEmpty(raw["name"]) && isEmpty(raw["full_name"]) {
		first, last := scalarString(raw["first_name"]), scalarString(raw["last_name"])
		if first != "" && last != "" {
			raw["name"] = first + " " + last
		}
	}
	applyAliases(raw, personalAliases)

	fields := make(map[string]any, len(personalFields))
	for _, k := range personalFields {
		if s := scalarString(raw[k]); s != "" {
			fields[k] = s
		}
	}
	var incoming model.PersonalInfo
	if err := weakDecode(fields, &incoming); err != nil {
		logx.Debug().Err(err).Str("component", "cv_normalizer").Msg("partial personal_info decode")
	}
	if n.validator != nil {
		incoming = n.validator.Correct(incoming)
	}
	return mergeEntry(existing, nonEmpty(structMap(incoming)))
}

// normalizeEntries returns one entry per incoming item. Items that carry
// nothing usable stay as nil placeholders so later entries keep their index.
func normalizeEntries(v any, sec section) []map[string]any {
	var out []map[string]any
	for _, item := range ensureList(v) {
		raw := asMap(item)
		if raw == nil {
			switch item.(type) {
			case []any, bool:
				out = append(out, nil)
				continue
			}
			text := scalarString(item)
			if text == "" {
				out = append(out, nil)
				continue
			}
			raw = map[string]any{"description": text}
		}
		applyAliases(raw, sec.aliases)

		entry := make(map[string]any, len(sec.scalars)+len(sec.lists))
		for _, k := range sec.scalars {
			if s := scalarString(raw[k]); s != "" {
				entry[k] = s
			}
		}
		for _, k := range sec.lists {
			if vals := model.SkillValues(raw[k]); len(vals) > 0 {
				entry[k] = vals
			}
		}
		if sec.infer != nil {
			sec.infer(raw, entry)
		}
		if len(entry) == 0 {
			out = append(out, nil)
			continue
		}
		out = append(out, entry)
	}
	return out
}

// inferEducation reads "<degree> in <institute>" from a free-text description.
func inferEducation(raw, entry map[string]any) {
	desc := scalarString(raw["description"])
	if desc == "" || (entry["degree"] != nil && entry["institute"] != nil) {
		return
	}
	degree, institute, found := strings.Cut(desc, " in ")
	if !found {
		degree, institute = desc, ""
	}
	fillMissing(entry, "degree", degree)
	fillMissing(entry, "institute", institute)
}

// inferExperience reads "<role> at <company>" from a free-text description.
func inferExperience(raw, entry map[string]any) {
	desc := scalarString(raw["description"])
	if desc == "" || (entry["role"] != nil && entry["company"] != nil) {
		return
	}
	role, company, found := strings.Cut(desc, " at ")
	if !found {
		return
	}
	fillMissing(entry, "role", role)
	fillMissing(entry, "company", company)
}

func fillMissing(entry map[string]any, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, ok := entry[key]; !ok {
		entry[key] = value
	}
}

// mergeEntries merges the i-th incoming entry into the i-th existing entry
// and appends the rest. Entries are matched by position only; nil
// placeholders leave their slot untouched and are never appended.
func mergeEntries[T any](existing []T, incoming []map[string]any) []T {
	out := append([]T{}, existing...)
	n := len(existing)
	for i, in := range incoming {
		if in == nil {
			continue
		}
		if i < n {
			out[i] = mergeEntry(out[i], in)
			continue
		}
		var zero T
		out = append(out, mergeEntry(zero, in))
	}
	return out
}

// mergeEntry overlays the incoming fields onto base. Callers pass only
// non-empty incoming values, so scalars never clear existing data.
func mergeEntry[T any](base T, incoming map[string]any) T {
	m := structMap(base)
	for k, v := range incoming {
		m[k] = v
	}
	var out T
	if err := weakDecode(m, &out); err != nil {
		logx.Debug().Err(err).Str("component", "cv_normalizer").Msg("partial entry decode")
	}
	return out
}

func structMap(v any) map[string]any {
	m := map[string]any{}
	if err := mapstructure.Decode(v, &m); err != nil {
		logx.Debug().Err(err).Str("component", "cv_normalizer").Msg("struct to map")
	}
	return m
}

func nonEmpty(m map[string]any) map[string]any {
	for k, v := range m {
		if isEmpty(v) {
			delete(m, k)
		}
	}
	return m
}

func weakDecode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	return dec.Decode(input)
}

func coerceSkills(v any) model.Skills {
	switch t := v.(type) {
	case model.Skills:
		return t
	case *model.Skills:
		if t != nil {
			return *t
		}
		return model.FlatSkills()
	case map[string]any:
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		cats := make([]model.SkillCategory, 0, len(names))
		for _, name := range names {
			cats = append(cats, model.SkillCategory{Name: name, Skills: model.SkillValues(t[name])})
		}
		return model.CategorizedSkills(cats...)
	}
	return model.FlatSkills(model.SkillValues(v)...)
}

func mergeMeta(existing model.Meta, m map[string]any) model.Meta {
	if m == nil {
		return existing
	}
	out := existing
	out.SkipExperience = out.SkipExperience || truthy(m["skip_experience"])
	out.SkipCertifications = out.SkipCertifications || truthy(m["skip_certifications"])
	out.ProjectsConfirmed = out.ProjectsConfirmed || truthy(m["projects_confirmed"])
	out.Refined = out.Refined || truthy(m["refined"])
	if n := intValue(m["project_detail_turns"]); n > out.ProjectDetailTurns {
		out.ProjectDetailTurns = n
	}
	if lang := strings.ToLower(scalarString(m["preferred_language"])); lang != "" {
		out.PreferredLanguage = lang
	}
	return out
}
