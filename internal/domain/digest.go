package domain

// Digest is the three-part text rendering of a repository produced by an ingester
type Digest struct {
	Summary string
	Tree    string
	Content string
}
