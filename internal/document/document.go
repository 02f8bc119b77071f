package document

// Document is a source file discovered in the input directory.
type Document struct {
	URL  string // Location passed to the file service (local path or afs URL)
	Name string // Base name, used for logging and parser selection
	Size int64
}

// Page is the extracted text of one page (or section) of a Document.
type Page struct {
	Number int // 1-based position within the document
	Text   string
}
