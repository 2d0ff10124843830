package catalog

// Product is one sellable catalog entry.
type Product struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Image            string  `json:"image"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"shortDescription"`
	Price            float64 `json:"price"`
}

// Default returns the embedded guitar catalog used when no upstream products
// service is configured.
func Default() []Product {
	return []Product{
		{
			ID:               1,
			Name:             "Vintage Sunburst Strat",
			Image:            "/images/vintage-sunburst-strat.jpg",
			Description:      "A classic double-cutaway with a three-tone sunburst finish, alder body, and bright single-coil pickups. Comfortable for rhythm and lead work alike.",
			ShortDescription: "Classic sunburst double-cutaway with single-coil bite.",
			Price:            850,
		},
		{
			ID:               2,
			Name:             "Midnight Blues Tele",
			Image:            "/images/midnight-blues-tele.jpg",
			Description:      "A deep blue single-cutaway built for twang. Ash body, maple neck, and a bridge pickup that cuts through any mix.",
			ShortDescription: "Deep blue single-cutaway with unmistakable twang.",
			Price:            700,
		},
		{
			ID:               3,
			Name:             "Ebony Custom LP",
			Image:            "/images/ebony-custom-lp.jpg",
			Description:      "A gloss-black single-cutaway with a carved maple top and dual humbuckers. Thick sustain and a neck that plays itself.",
			ShortDescription: "Gloss-black single-cutaway with endless sustain.",
			Price:            1200,
		},
		{
			ID:               4,
			Name:             "Dreadnought Acoustic",
			Image:            "/images/dreadnought-acoustic.jpg",
			Description:      "A solid spruce-top dreadnought with rosewood back and sides. Big, balanced voice suited to strummers and flatpickers.",
			ShortDescription: "Solid spruce dreadnought with a big balanced voice.",
			Price:            550,
		},
		{
			ID:               5,
			Name:             "Semi-Hollow Jazz Box",
			Image:            "/images/semi-hollow-jazz-box.jpg",
			Description:      "A cherry-red semi-hollow with a warm, airy tone. Center block keeps feedback in check at stage volume.",
			ShortDescription: "Cherry semi-hollow with warm, airy cleans.",
			Price:            950,
		},
		{
			ID:               6,
			Name:             "Travel Parlor",
			Image:            "/images/travel-parlor.jpg",
			Description:      "A compact parlor acoustic that fits in an overhead bin and still projects. Mahogany body with a focused midrange.",
			ShortDescription: "Compact mahogany parlor that travels anywhere.",
			Price:            400,
		},
	}
}
