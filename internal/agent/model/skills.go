package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GeneralCategory receives flat skills once the set becomes categorized.
const GeneralCategory = "General"

// SkillCategory is one named group of categorized skills.
type SkillCategory struct {
	Name   string
	Skills []string
}

// Skills is either a flat ordered set or an ordered mapping of category to set.
// The zero value is an empty flat set.
type Skills struct {
	categorized bool
	flat        []string
	categories  []SkillCategory
}

func FlatSkills(items ...string) Skills {
	s := Skills{flat: []string{}}
	s.flat = appendUnique(s.flat, items...)
	return s
}

func CategorizedSkills(categories ...SkillCategory) Skills {
	s := Skills{categorized: true}
	for _, c := range categories {
		s.addToCategory(c.Name, c.Skills...)
	}
	return s
}

func (s Skills) IsCategorized() bool { return s.categorized }

// Flat returns the flat set, or nil when categorized.
func (s Skills) Flat() []string {
	if s.categorized {
		return nil
	}
	return append([]string{}, s.flat...)
}

// Categories returns the categories in insertion order, or nil when flat.
func (s Skills) Categories() []SkillCategory {
	if !s.categorized {
		return nil
	}
	out := make([]SkillCategory, len(s.categories))
	for i, c := range s.categories {
		out[i] = SkillCategory{Name: c.Name, Skills: append([]string{}, c.Skills...)}
	}
	return out
}

// All returns every captured skill regardless of representation.
func (s Skills) All() []string {
	if !s.categorized {
		return append([]string{}, s.flat...)
	}
	var out []string
	for _, c := range s.categories {
		out = append(out, c.Skills...)
	}
	return out
}

func (s Skills) Len() int { return len(s.All()) }

func (s Skills) IsEmpty() bool { return s.Len() == 0 }

func (s Skills) Clone() Skills {
	if s.categorized {
		return Skills{categorized: true, categories: s.Categories()}
	}
	return Skills{flat: s.Flat()}
}

// MergeSkills unions incoming into existing. The result is categorized when
// either side is; flat entries then fold into GeneralCategory. Deduplication
// is case-insensitive on the trimmed value across all categories, and the
// first-seen entry keeps its category and casing.
func MergeSkills(existing, incoming Skills) Skills {
	if !existing.categorized && !incoming.categorized {
		out := FlatSkills(existing.flat...)
		out.flat = appendUnique(out.flat, incoming.flat...)
		return out
	}
	out := Skills{categorized: true}
	for _, side := range []Skills{existing, incoming} {
		if !side.categorized {
			if len(side.flat) > 0 {
				out.addToCategory(GeneralCategory, side.flat...)
			}
			continue
		}
		for _, c := range side.categories {
			out.addToCategory(c.Name, c.Skills...)
		}
	}
	return out
}

func (s *Skills) addToCategory(name string, items ...string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = GeneralCategory
	}
	fresh := s.unknown(items)
	for i := range s.categories {
		if strings.EqualFold(s.categories[i].Name, name) {
			s.categories[i].Skills = appendUnique(s.categories[i].Skills, fresh...)
			return
		}
	}
	// a category made only of skills filed elsewhere is dropped
	if len(fresh) == 0 && len(items) > 0 {
		return
	}
	s.categories = append(s.categories, SkillCategory{Name: name, Skills: appendUnique([]string{}, fresh...)})
}

// unknown returns the items whose key is not yet in any category.
func (s *Skills) unknown(items []string) []string {
	seen := make(map[string]struct{})
	for _, c := range s.categories {
		for _, v := range c.Skills {
			seen[SkillKey(v)] = struct{}{}
		}
	}
	out := make([]string, 0, len(items))
	for _, v := range items {
		if _, ok := seen[SkillKey(v)]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// SkillKey is the deduplication key of a skill.
func SkillKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(items))
	for _, v := range dst {
		seen[SkillKey(v)] = struct{}{}
	}
	for _, v := range items {
		k := SkillKey(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		dst = append(dst, strings.TrimSpace(v))
	}
	return dst
}

// MarshalJSON encodes a flat set as an array and a categorized set as an
// object whose keys keep insertion order.
func (s Skills) MarshalJSON() ([]byte, error) {
	if !s.categorized {
		return json.Marshal(FlatSkills(s.flat...).flat)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(append([]string{}, c.Skills...))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an array, an object of category to values, a comma
// separated string or null. Object key order is preserved.
func (s *Skills) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = FlatSkills()
		return nil
	}
	switch data[0] {
	case '{':
		return s.unmarshalCategories(data)
	default:
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = FlatSkills(SkillValues(raw)...)
		return nil
	}
}

func (s *Skills) unmarshalCategories(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := Skills{categorized: true}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("skills: unexpected key %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out.addToCategory(name, SkillValues(raw)...)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// SkillValues coerces a loosely typed value into skill strings. Strings are
// split on commas; objects contribute their "name" field.
func SkillValues(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []string:
		return t
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, SkillValues(item)...)
		}
		return out
	case map[string]any:
		for k, val := range t {
			if strings.EqualFold(k, "name") || strings.EqualFold(k, "skill") {
				return SkillValues(val)
			}
		}
		return nil
	case bool:
		return nil
	default:
		return []string{strings.TrimSpace(fmt.Sprint(t))}
	}
}
