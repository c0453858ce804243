package domain

// Article is a published knowledge-base entry. The corpus is owned by the
// FAQ side of the product; this service only reads it for auto-reply scoring.
type Article struct {
	ID          int64
	Title       string
	Description string
	Category    string
}
