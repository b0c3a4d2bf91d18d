// Package jobs holds the read-only inputs of the recommendation engine: job postings,
// résumé profiles and evaluator prompts.
package jobs

import (
	"sort"
	"strconv"
)

// Posting is the summary of a job posting the engine scores against.
type Posting struct {
	ID             int      `json:"id" mapstructure:"id"`
	Position       string   `json:"position" mapstructure:"position"`
	RequiredSkills []string `json:"required_skills" mapstructure:"required_skills"`
	Preferred      string   `json:"preferred,omitempty" mapstructure:"preferred"`
	// CareerMin and CareerMax are independent bounds in years; nil means unbounded.
	CareerMin      *int   `json:"career_min,omitempty" mapstructure:"career_min"`
	CareerMax      *int   `json:"career_max,omitempty" mapstructure:"career_max"`
	CompanyName    string `json:"company_name,omitempty" mapstructure:"company_name"`
	Location       string `json:"location,omitempty" mapstructure:"location"`
	URL            string `json:"url,omitempty" mapstructure:"url"`
	EmploymentType string `json:"employment_type,omitempty" mapstructure:"employment_type"`
}

// DocID is the posting identifier as stored in the vector index.
func (p *Posting) DocID() string {
	return strconv.Itoa(p.ID)
}

// AcceptsCareer reports whether years falls inside the posting's career bounds.
// A missing bound does not restrict.
func (p *Posting) AcceptsCareer(years int) bool {
	if p.CareerMin != nil && years < *p.CareerMin {
		return false
	}
	if p.CareerMax != nil && years > *p.CareerMax {
		return false
	}
	return true
}

// Postings is an id-indexed posting collection.
type Postings struct {
	Items map[int]*Posting
}

// NewPostings indexes the given postings by id. Later duplicates win.
func NewPostings(items ...*Posting) *Postings {
	p := &Postings{Items: make(map[int]*Posting, len(items))}
	for _, item := range items {
		if item != nil {
			p.Items[item.ID] = item
		}
	}
	return p
}

func (p *Postings) Len() int {
	return len(p.Items)
}

// FindByID returns nil when the posting is unknown.
func (p *Postings) FindByID(id int) *Posting {
	if p == nil {
		return nil
	}
	return p.Items[id]
}

// IDs returns the posting ids in ascending order.
func (p *Postings) IDs() []int {
	ids := make([]int, 0, len(p.Items))
	for id := range p.Items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// IntPtr is a convenience for optional career bounds.
func IntPtr(v int) *int {
	return &v
}
