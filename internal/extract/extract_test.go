package extract

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const labeledResume = `Jane Doe
Curriculum Vitae

Name: Jane Doe
Email: jane.doe@example.com
Phone: +94 77 123 4567

Education:
BSc in Computer Science, University of Colombo
A/L Physical Science, Royal College

Qualifications:
AWS Certified Developer
Go, TypeScript, SQL

Projects:
cvparse - résumé intake service
Realtime chat over WebSockets
`

func TestExtract_LabeledResume(t *testing.T) {
	rec := Extract(labeledResume)

	if rec.Name != "Jane Doe" {
		t.Errorf("expected name %q, got %q", "Jane Doe", rec.Name)
	}
	if rec.Email != "jane.doe@example.com" {
		t.Errorf("expected email %q, got %q", "jane.doe@example.com", rec.Email)
	}
	if rec.Phone != "+94 77 123 4567" {
		t.Errorf("expected phone %q, got %q", "+94 77 123 4567", rec.Phone)
	}

	wantEdu := []string{"BSc in Computer Science, University of Colombo", "A/L Physical Science, Royal College"}
	if !reflect.DeepEqual(rec.Education, wantEdu) {
		t.Errorf("education: expected %q, got %q", wantEdu, rec.Education)
	}
	wantQual := []string{"AWS Certified Developer", "Go, TypeScript, SQL"}
	if !reflect.DeepEqual(rec.Qualifications, wantQual) {
		t.Errorf("qualifications: expected %q, got %q", wantQual, rec.Qualifications)
	}
	wantProj := []string{"cvparse - résumé intake service", "Realtime chat over WebSockets"}
	if !reflect.DeepEqual(rec.Projects, wantProj) {
		t.Errorf("projects: expected %q, got %q", wantProj, rec.Projects)
	}
	if rec.DocumentURL != "" {
		t.Errorf("expected empty document url before attach, got %q", rec.DocumentURL)
	}
}

func TestExtract_EmptyInputYieldsDefaults(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		rec := Extract(input)
		if rec.Name != NotAvailable || rec.Email != NotAvailable || rec.Phone != NotAvailable {
			t.Errorf("input %q: expected N/A scalars, got %+v", input, rec)
		}
		if rec.Education == nil || rec.Qualifications == nil || rec.Projects == nil {
			t.Fatalf("input %q: expected non-nil list fields, got %+v", input, rec)
		}
		if len(rec.Education)+len(rec.Qualifications)+len(rec.Projects) != 0 {
			t.Errorf("input %q: expected empty lists, got %+v", input, rec)
		}
	}
}

func TestExtract_ListsEncodeAsEmptyArrays(t *testing.T) {
	b, err := json.Marshal(Extract("just one line"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, field := range []string{`"education":[]`, `"qualifications":[]`, `"projects":[]`} {
		if !strings.Contains(s, field) {
			t.Errorf("expected %s in %s", field, s)
		}
	}
}

func TestExtract_LabeledEmailWinsOverShape(t *testing.T) {
	text := "Contact me at other@elsewhere.org\nEmail: a@b.com\n"
	rec := Extract(text)
	if rec.Email != "a@b.com" {
		t.Errorf("expected labeled email %q, got %q", "a@b.com", rec.Email)
	}
}

func TestExtract_EmailShapeFallback(t *testing.T) {
	rec := Extract("John Smith\nReach me: john_smith-99@mail.example.co\n")
	if rec.Email != "john_smith-99@mail.example.co" {
		t.Errorf("expected shape-matched email, got %q", rec.Email)
	}
}

func TestExtract_NameFallsBackToFirstNonBlankLine(t *testing.T) {
	rec := Extract("\n\n   Ada Lovelace  \nMathematician\n")
	if rec.Name != "Ada Lovelace" {
		t.Errorf("expected %q, got %q", "Ada Lovelace", rec.Name)
	}
}

func TestExtract_NameLabelVariants(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Header\nName:Grace Hopper\n", "Grace Hopper"},
		{"Header\nName: Grace Hopper\n", "Grace Hopper"},
		{"Header\nName : Grace Hopper\n", "Grace Hopper"},
		{"Header\nName:\nGrace Hopper\n", "Grace Hopper"},
		{"Username: ghopper\nGrace Hopper\n", "Username: ghopper"},
	}
	for _, tt := range tests {
		if got := Extract(tt.text).Name; got != tt.want {
			t.Errorf("text=%q: expected %q, got %q", tt.text, tt.want, got)
		}
	}
}

func TestExtract_PhoneStrategyOrder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"phone label", "Mobile: 111\nPhone: 222\n", "222"},
		{"tel", "Tel: 333\nMobile: 444\n", "333"},
		{"telephone", "Telephone: 555\n", "555"},
		{"mobile before contact", "Contact: 777\nMobile: 666\n", "666"},
		{"contact", "Contact: 888\n", "888"},
		{"none", "Nothing here\n", NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.text).Phone; got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtract_NoEducationLabel(t *testing.T) {
	rec := Extract("Name: X\nSchooling:\nSomewhere\n")
	if len(rec.Education) != 0 {
		t.Errorf("expected no education, got %q", rec.Education)
	}
}

func TestExtract_ProjectsStopAtBlankLine(t *testing.T) {
	rec := Extract("Projects:\nX\nY\n\nNext Section")
	want := []string{"X", "Y"}
	if !reflect.DeepEqual(rec.Projects, want) {
		t.Errorf("expected %q, got %q", want, rec.Projects)
	}
}

func TestExtract_SectionStopsAtNextHeading(t *testing.T) {
	text := "Skills:\nGo\nKubernetes\nProjects:\nPayments API\n"
	rec := Extract(text)
	if want := []string{"Go", "Kubernetes"}; !reflect.DeepEqual(rec.Qualifications, want) {
		t.Errorf("qualifications: expected %q, got %q", want, rec.Qualifications)
	}
	if want := []string{"Payments API"}; !reflect.DeepEqual(rec.Projects, want) {
		t.Errorf("projects: expected %q, got %q", want, rec.Projects)
	}
}

func TestExtract_SectionStopsAtInlineLabel(t *testing.T) {
	rec := Extract("Education:\nMSc Data Science\nSkills: Python, R\n")
	if want := []string{"MSc Data Science"}; !reflect.DeepEqual(rec.Education, want) {
		t.Errorf("expected %q, got %q", want, rec.Education)
	}
	if want := []string{"Python, R"}; !reflect.DeepEqual(rec.Qualifications, want) {
		t.Errorf("expected %q, got %q", want, rec.Qualifications)
	}
}

func TestExtract_SectionFallbackLabels(t *testing.T) {
	text := "Academic Background:\nDiploma in IT\n\nSkills:\nLinux\n\nExperience:\nSRE at Acme\n"
	rec := Extract(text)
	if want := []string{"Diploma in IT"}; !reflect.DeepEqual(rec.Education, want) {
		t.Errorf("education: expected %q, got %q", want, rec.Education)
	}
	if want := []string{"Linux"}; !reflect.DeepEqual(rec.Qualifications, want) {
		t.Errorf("qualifications: expected %q, got %q", want, rec.Qualifications)
	}
	if want := []string{"SRE at Acme"}; !reflect.DeepEqual(rec.Projects, want) {
		t.Errorf("projects: expected %q, got %q", want, rec.Projects)
	}
}

func TestExtract_EmptyPrimarySectionFallsThrough(t *testing.T) {
	// "Projects:" is immediately followed by another heading, so the
	// Experience block is used instead.
	text := "Projects:\nReferences:\nOn request\n\nExperience:\nBackend engineer\n"
	rec := Extract(text)
	if want := []string{"Backend engineer"}; !reflect.DeepEqual(rec.Projects, want) {
		t.Errorf("expected %q, got %q", want, rec.Projects)
	}
}

func TestExtract_SameLineSectionContent(t *testing.T) {
	rec := Extract("Skills: Go, Rust\n  Docker  \n\n")
	if want := []string{"Go, Rust", "Docker"}; !reflect.DeepEqual(rec.Qualifications, want) {
		t.Errorf("expected %q, got %q", want, rec.Qualifications)
	}
}

func TestExtract_CRLFInput(t *testing.T) {
	rec := Extract("Name: Alan Turing\r\nEducation:\r\nKing's College\r\nPrinceton\r\n\r\n")
	if rec.Name != "Alan Turing" {
		t.Errorf("expected %q, got %q", "Alan Turing", rec.Name)
	}
	if want := []string{"King's College", "Princeton"}; !reflect.DeepEqual(rec.Education, want) {
		t.Errorf("expected %q, got %q", want, rec.Education)
	}
}

func TestExtract_WhitespaceOnlyLineEndsSection(t *testing.T) {
	rec := Extract("Projects:\nalpha\n   \nbeta\n")
	if want := []string{"alpha"}; !reflect.DeepEqual(rec.Projects, want) {
		t.Errorf("expected %q, got %q", want, rec.Projects)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	a := Extract(labeledResume)
	b := Extract(labeledResume)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical records, got %+v and %+v", a, b)
	}
}

func TestExtract_ConcurrentUse(t *testing.T) {
	want := Extract(labeledResume)
	done := make(chan Record, 16)
	for range 16 {
		go func() { done <- Extract(labeledResume) }()
	}
	for range 16 {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Fatalf("concurrent extraction diverged: %+v", got)
		}
	}
}

func TestLegacyBoundary_TruncatesAtCapitalisedLine(t *testing.T) {
	ex := New(BoundaryLegacy)
	rec := ex.Extract("Projects:\nX\nY\n\nNext Section")
	if want := []string{"X"}; !reflect.DeepEqual(rec.Projects, want) {
		t.Errorf("expected %q, got %q", want, rec.Projects)
	}
}

func TestLegacyBoundary_LowercaseContinuation(t *testing.T) {
	ex := New(BoundaryLegacy)
	rec := ex.Extract("Skills:\ngo\nrust\n\nOther")
	if want := []string{"go", "rust"}; !reflect.DeepEqual(rec.Qualifications, want) {
		t.Errorf("expected %q, got %q", want, rec.Qualifications)
	}
}

func TestLegacyBoundary_RunsToEndOfText(t *testing.T) {
	ex := New(BoundaryLegacy)
	rec := ex.Extract("Education: bsc\nmsc")
	if want := []string{"bsc", "msc"}; !reflect.DeepEqual(rec.Education, want) {
		t.Errorf("expected %q, got %q", want, rec.Education)
	}
}

func TestParseBoundary(t *testing.T) {
	tests := []struct {
		in      string
		want    Boundary
		wantErr bool
	}{
		{"", BoundaryHeading, false},
		{"heading", BoundaryHeading, false},
		{"LEGACY", BoundaryLegacy, false},
		{"regex", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseBoundary(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBoundary(%q): unexpected error state: %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseBoundary(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Skills:", true},
		{"  Work History:", true},
		{"Experience: 5 years", true},
		{"Software Engineer at Acme Corp (2020-2023):", false},
		{"languages:", false},
		{"Go, Rust", false},
	}
	for _, tt := range tests {
		if got := isHeading(tt.line); got != tt.want {
			t.Errorf("isHeading(%q): expected %v, got %v", tt.line, tt.want, got)
		}
	}
}

func TestRecord_WithDocumentURL(t *testing.T) {
	rec := Extract("Name: A")
	withURL := rec.WithDocumentURL("https://cdn.example.com/cv.pdf")
	if withURL.DocumentURL != "https://cdn.example.com/cv.pdf" {
		t.Errorf("expected url to be attached, got %q", withURL.DocumentURL)
	}
	if rec.DocumentURL != "" {
		t.Errorf("expected original record untouched, got %q", rec.DocumentURL)
	}
}
