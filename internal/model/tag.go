package model

// Tag is a named category attached to productions.  Tags are unique by ID.
type Tag struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// NewTag builds a Tag from an API record; id and name are mandatory.
func NewTag(rec Record) (Tag, error) {
	const entity = "Tag"
	if err := requireFields(entity, rec, "id", "name"); err != nil {
		return Tag{}, err
	}
	id, err := stringField(entity, rec, "id")
	if err != nil {
		return Tag{}, err
	}
	name, err := stringField(entity, rec, "name")
	if err != nil {
		return Tag{}, err
	}
	desc, err := optionalString(entity, rec, "description")
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: id, Name: name, Description: desc}, nil
}

// Image is a production picture.  Images are ordered by SortOrder.
type Image struct {
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

// NewImage builds an Image from an API record; url and sortOrder are mandatory.
func NewImage(rec Record) (Image, error) {
	const entity = "Image"
	if err := requireFields(entity, rec, "url", "sortOrder"); err != nil {
		return Image{}, err
	}
	url, err := stringField(entity, rec, "url")
	if err != nil {
		return Image{}, err
	}
	order, err := intField(entity, rec, "sortOrder")
	if err != nil {
		return Image{}, err
	}
	return Image{URL: url, SortOrder: order}, nil
}
