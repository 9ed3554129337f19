package selection

import "creativedojo/internal/catalog"

type ContentProvider interface {
	Find(id int) (catalog.Challenge, error)
}
