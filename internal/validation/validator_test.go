package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return New(func() time.Time { return fixedNow })
}

func validApplication() dto.CreateApplicationRequest {
	return dto.CreateApplicationRequest{
		Program:    "Full Stack Development",
		Motivation: strings.Repeat("I want to build reliable web products. ", 4),
		Experience: strings.Repeat("Two years of frontend work. ", 3),
		Goals:      strings.Repeat("Lead a product team someday. ", 3),
		Availability: dto.AvailabilityRequest{
			StartDate:      "2026-07-01",
			TimeCommitment: "Flexible",
		},
		TechnicalSkills: []dto.SkillRequest{{Skill: "Go", Level: "Intermediate"}},
		Projects: []dto.ProjectRequest{{
			Name:         "Portfolio",
			Description:  "Personal site with blog and projects",
			Technologies: []string{"React", "Tailwind"},
			URL:          "https://example.com",
			GithubURL:    "https://github.com/someone/portfolio",
		}},
	}
}

func fields(err error) []string {
	var out []string
	if verrs, ok := err.(Errors); ok {
		for _, fe := range verrs {
			out = append(out, fe.Field)
		}
	}
	return out
}

func TestRegisterRequest(t *testing.T) {
	v := newTestValidator()

	ok := dto.RegisterRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Password:    "Secur3!pass",
		Phone:       "+1 (555) 010-2000",
		DateOfBirth: "1990-04-01",
	}
	require.NoError(t, v.Struct(&ok))

	bad := ok
	bad.FirstName = "A1"
	bad.Email = "not-an-email"
	bad.Phone = "call me"
	bad.DateOfBirth = "2020-01-01"
	err := v.Struct(&bad)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"firstName", "email", "phone", "dateOfBirth"}, fields(err))
}

func TestRegisterRequestPasswordNeverEchoed(t *testing.T) {
	v := newTestValidator()
	req := dto.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "short"}

	err := v.Struct(&req)
	require.Error(t, err)
	verrs := err.(Errors)
	require.Len(t, verrs, 1)
	assert.Equal(t, "password", verrs[0].Field)
	assert.Nil(t, verrs[0].Value)
}

func TestApplicationRequestValid(t *testing.T) {
	v := newTestValidator()
	req := validApplication()
	assert.NoError(t, v.Struct(&req))
}

func TestApplicationRequestRules(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		mutate func(r *dto.CreateApplicationRequest)
		field  string
	}{
		{"unknown program", func(r *dto.CreateApplicationRequest) { r.Program = "Basket Weaving" }, "program"},
		{"short motivation", func(r *dto.CreateApplicationRequest) { r.Motivation = "too short" }, "motivation"},
		{"motivation charset", func(r *dto.CreateApplicationRequest) {
			r.Motivation = strings.Repeat("a", 100) + " #hashtag"
		}, "motivation"},
		{"past start date", func(r *dto.CreateApplicationRequest) { r.Availability.StartDate = "2026-06-01" }, "availability.startDate"},
		{"far start date", func(r *dto.CreateApplicationRequest) { r.Availability.StartDate = "2028-07-01" }, "availability.startDate"},
		{"bad commitment", func(r *dto.CreateApplicationRequest) { r.Availability.TimeCommitment = "Weekends" }, "availability.timeCommitment"},
		{"no skills", func(r *dto.CreateApplicationRequest) { r.TechnicalSkills = nil }, "technicalSkills"},
		{"bad skill level", func(r *dto.CreateApplicationRequest) { r.TechnicalSkills[0].Level = "Guru" }, "technicalSkills[0].level"},
		{"non github repo", func(r *dto.CreateApplicationRequest) { r.Projects[0].GithubURL = "https://gitlab.com/x/y" }, "projects[0].githubUrl"},
		{"too many projects", func(r *dto.CreateApplicationRequest) {
			p := r.Projects[0]
			r.Projects = nil
			for i := 0; i < 11; i++ {
				r.Projects = append(r.Projects, p)
			}
		}, "projects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validApplication()
			req.TechnicalSkills = append([]dto.SkillRequest(nil), req.TechnicalSkills...)
			req.Projects = append([]dto.ProjectRequest(nil), req.Projects...)
			tt.mutate(&req)

			err := v.Struct(&req)
			require.Error(t, err)
			assert.Contains(t, fields(err), tt.field)
		})
	}
}

func TestStartDateToday(t *testing.T) {
	v := newTestValidator()
	req := validApplication()
	req.Availability.StartDate = "2026-06-15"
	assert.NoError(t, v.Struct(&req))
}

func TestUpdateRequestOptionalFields(t *testing.T) {
	v := newTestValidator()

	var empty dto.UpdateApplicationRequest
	assert.NoError(t, v.Struct(&empty))
	assert.True(t, empty.Empty())

	short := "short"
	bad := dto.UpdateApplicationRequest{Goals: &short, TechnicalSkills: []dto.SkillRequest{}}
	err := v.Struct(&bad)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"goals", "technicalSkills"}, fields(err))
}

func TestListQuery(t *testing.T) {
	v := newTestValidator()

	q := dto.DefaultListQuery()
	assert.NoError(t, v.Struct(&q))

	q.Sort = "program"
	q.Status = "pending"
	assert.NoError(t, v.Struct(&q))

	q.Page = 0
	q.Limit = 101
	q.Sort = "-password"
	err := v.Struct(&q)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"page", "limit", "sort"}, fields(err))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("42"))
	assert.True(t, ValidID("65f1a2b3c4d5e6f7a8b9c0d1"))
	assert.True(t, ValidID("3f2504e0-4f89-11d3-9a0c-0305e82c3301"))
	assert.False(t, ValidID("abc"))
	assert.False(t, ValidID("1; DROP TABLE"))
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(2013, 6, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, ageAt(dob, fixedNow))
	assert.Equal(t, 13, ageAt(dob, fixedNow.AddDate(0, 0, 1)))
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tags and script body", in: "  <b>Hello</b> <script>alert(1)</script>world ", want: "Hello world"},
		{name: "event handler attribute", in: `<img src=a onerror=alert(1)>x`, want: "x"},
		{name: "iframe", in: `before<iframe src="https://evil.example"></iframe>after`, want: "beforeafter"},
		{name: "plain assignment kept", in: "one = two", want: "one = two"},
		{name: "ampersand not escaped", in: "R&D at O'Reilly", want: "R&D at O'Reilly"},
		{name: "comparison kept", in: "latency < 5ms", want: "latency < 5ms"},
		{name: "inner spacing kept", in: "line one\n\n  indented", want: "line one\n\n  indented"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Text(tt.in))
		})
	}

	assert.Equal(t, []string{"Go", "Rust"}, s.List([]string{"Go", "<i></i>", " Rust "}))
}
