package product

// Product is the catalogue entry that owns a stored image.
type Product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float32 `json:"price"`
	Image string  `json:"image,omitempty"`
}

func (p *Product) AssetID() int {
	if p == nil {
		return 0
	}
	return p.ID
}

// ImagePath is empty for a nil product, which the asset store rejects.
func (p *Product) ImagePath() string {
	if p == nil {
		return ""
	}
	return p.Image
}

func (p *Product) SetImagePath(path string) {
	p.Image = path
}
