package openlibrary

// searchResponse is the raw Open Library search.json response.
type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []doc `json:"docs"`
}

// doc is a single work from the search results.
type doc struct {
	Key              string   `json:"key"` // "/works/OL45883W"
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstSentence    []string `json:"first_sentence"`
	CoverID          int64    `json:"cover_i"`
	ISBN             []string `json:"isbn"`
	Language         []string `json:"language"`
	Subject          []string `json:"subject"`
	NumberOfPagesMed int      `json:"number_of_pages_median"`
}
