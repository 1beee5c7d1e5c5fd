package jsonapi

// ResourceBuilder provides a fluent API for building Resource objects.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr adds an attribute to the resource. Keys "id" and "type" are top-level
// members and are ignored.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	if key == "id" || key == "type" {
		return b
	}
	b.resource.Attributes[key] = value
	return b
}

// Link sets the self link for the resource.
func (b *ResourceBuilder) Link(self string) *ResourceBuilder {
	b.resource.Links = &Links{Self: self}
	return b
}

// Related sets the related link for the resource.
func (b *ResourceBuilder) Related(url string) *ResourceBuilder {
	if b.resource.Links == nil {
		b.resource.Links = &Links{}
	}
	b.resource.Links.Related = url
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}
