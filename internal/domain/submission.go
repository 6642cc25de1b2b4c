package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Submission is the membership form as posted by the browser.
type Submission struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	City      string `json:"city"`
	Discord   string `json:"discord"`
}

type field struct {
	name  string
	value string
}

// fields lists the form fields in form order.
func (s Submission) fields() []field {
	return []field{
		{"firstname", s.FirstName},
		{"lastname", s.LastName},
		{"email", s.Email},
		{"date", s.Date},
		{"city", s.City},
		{"discord", s.Discord},
	}
}

// Validate reports every required field that is blank.
func (s Submission) Validate() error {
	var missing []string
	for _, f := range s.fields() {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// CheckText reports every field that printable rejects.
func (s Submission) CheckText(printable func(string) bool) error {
	var bad []string
	for _, f := range s.fields() {
		if !printable(f.value) {
			bad = append(bad, f.name)
		}
	}
	if len(bad) > 0 {
		return &UnsupportedTextError{Fields: bad}
	}
	return nil
}

// Normalize trims every field and converts it to NFC so that accents typed
// as combining sequences map onto single glyphs of the standard fonts.
func (s Submission) Normalize() Submission {
	clean := func(v string) string {
		return norm.NFC.String(strings.TrimSpace(v))
	}
	return Submission{
		FirstName: clean(s.FirstName),
		LastName:  clean(s.LastName),
		Email:     clean(s.Email),
		Date:      clean(s.Date),
		City:      clean(s.City),
		Discord:   clean(s.Discord),
	}
}

// FullName is "First Last", used in the declaration and the signature.
func (s Submission) FullName() string {
	return s.FirstName + " " + s.LastName
}

// ReversedName is "Last First", used in the identity section.
func (s Submission) ReversedName() string {
	return s.LastName + " " + s.FirstName
}

// AttachmentName is the file name offered to the browser, Engagement_<Last>.pdf.
// Characters other than letters, digits and '-' are replaced by '_'.
func (s Submission) AttachmentName() string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '_'
	}, s.LastName)
	return "Engagement_" + name + ".pdf"
}
