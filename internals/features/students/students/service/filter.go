package service

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/students/students/model"
)

// Criteria is an in-memory filter over a school's students. All set
// filters must hold (conjunction); an empty slice means "any".
type Criteria struct {
	Query      string
	ClassIDs   []uuid.UUID
	Statuses   []model.StudentStatus
	Genders    []model.Gender
	ActiveOnly bool
	IDs        []uuid.UUID
}

type SortKey string

const (
	SortName   SortKey = "name"
	SortStatus SortKey = "status"
)

// ParseSort falls back to name/asc for unknown values.
func ParseSort(key, order string) (SortKey, bool) {
	k := SortName
	if strings.EqualFold(strings.TrimSpace(key), string(SortStatus)) {
		k = SortStatus
	}
	return k, strings.EqualFold(strings.TrimSpace(order), "desc")
}

// Matches reports whether s passes every active filter in c.
func (c Criteria) Matches(s *model.StudentModel) bool {
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		name := strings.ToLower(s.FullName())
		reg := ""
		if s.StudentRegistrationNumber != nil {
			reg = strings.ToLower(*s.StudentRegistrationNumber)
		}
		if !strings.Contains(name, q) && !strings.Contains(reg, q) {
			return false
		}
	}
	if len(c.ClassIDs) > 0 && !containsID(c.ClassIDs, s.StudentClassID) {
		return false
	}
	if len(c.IDs) > 0 && !containsID(c.IDs, s.StudentID) {
		return false
	}
	if c.ActiveOnly && s.StudentStatus != model.StudentActive {
		return false
	}
	if len(c.Statuses) > 0 {
		ok := false
		for _, st := range c.Statuses {
			if s.StudentStatus == st {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(c.Genders) > 0 {
		if s.StudentGender == nil {
			return false
		}
		ok := false
		for _, g := range c.Genders {
			if *s.StudentGender == g {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Filter returns the matching students in input order. The input is not modified.
func Filter(in []model.StudentModel, c Criteria) []model.StudentModel {
	out := make([]model.StudentModel, 0, len(in))
	for i := range in {
		if c.Matches(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

// Sort orders list in place. Ties keep their previous order; ties on
// status are broken by name.
func Sort(list []model.StudentModel, key SortKey, desc bool) {
	less := func(a, b *model.StudentModel) int {
		if key == SortStatus {
			if c := strings.Compare(string(a.StudentStatus), string(b.StudentStatus)); c != 0 {
				return c
			}
		}
		return strings.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName()))
	}
	sort.SliceStable(list, func(i, j int) bool {
		c := less(&list[i], &list[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
