package catalog

// Provider is the read-only challenge catalog the rest of the app consumes.
type Provider interface {
	Challenges() []Challenge
	Find(id int) (Challenge, error)
	Len() int
}
