package extract

// NotAvailable is the value of a scalar field no strategy could fill.
const NotAvailable = "N/A"

// Record holds the fields extracted from one résumé document.
// List fields are never nil so they encode as [] rather than null.
type Record struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Education      []string `json:"education"`
	Qualifications []string `json:"qualifications"`
	Projects       []string `json:"projects"`
	DocumentURL    string   `json:"documentUrl"`
}

// WithDocumentURL returns a copy of r pointing at its source document.
func (r Record) WithDocumentURL(url string) Record {
	r.DocumentURL = url
	return r
}
