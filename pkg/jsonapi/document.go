package jsonapi

// NewResourceDocument returns a document whose primary data is r.
func NewResourceDocument(r Resource) Document {
	return Document{Data: r}
}

// NewCollectionDocument returns a document holding resources and a count in
// meta. A nil slice is rendered as an empty array.
func NewCollectionDocument(resources []Resource) Document {
	if resources == nil {
		resources = []Resource{}
	}
	return Document{Data: resources, Meta: Meta{"count": len(resources)}}
}

// NewErrorDocument returns a document carrying errs. Data is left empty.
func NewErrorDocument(errs ...Error) Document {
	return Document{Errors: errs}
}
