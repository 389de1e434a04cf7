package kroger

// ProductPrice is one product's price observation at one store, as returned
// by the products endpoint.
type ProductPrice struct {
	UPC         string
	ProductID   string
	Description string
	Brand       string
	Category    string
	Size        string

	// Regular is nil when the API omits a price entirely. Promo is nil when
	// absent or zero; the API reports zero for "no promotion".
	Regular *float64
	Promo   *float64
}

// Location is one store from the locations endpoint.
type Location struct {
	LocationID string
	Chain      string
	Name       string
	Division   string

	AddressLine1 string
	City         string
	State        string
	ZipCode      string

	Latitude  *float64
	Longitude *float64
}

// LocationQuery narrows a locations listing.
type LocationQuery struct {
	ZipNear     string
	RadiusMiles int
	Chain       string
	Limit       int
}

type apiEnvelope struct {
	Data []productDTO `json:"data"`
}

type productDTO struct {
	ProductID   string   `json:"productId"`
	UPC         string   `json:"upc"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Categories  []string `json:"categories"`
	Items       []struct {
		Size  string `json:"size"`
		Price *struct {
			Regular *float64 `json:"regular"`
			Promo   *float64 `json:"promo"`
		} `json:"price"`
	} `json:"items"`
}

func (d productDTO) toPrice() ProductPrice {
	p := ProductPrice{
		UPC:         d.UPC,
		ProductID:   d.ProductID,
		Description: d.Description,
		Brand:       d.Brand,
	}
	if len(d.Categories) > 0 {
		p.Category = d.Categories[0]
	}
	if len(d.Items) == 0 {
		return p
	}
	item := d.Items[0]
	p.Size = item.Size
	if item.Price == nil {
		return p
	}
	p.Regular = item.Price.Regular
	// A zero promo means no promotion is running.
	if item.Price.Promo != nil && *item.Price.Promo != 0 {
		p.Promo = item.Price.Promo
	}
	return p
}

type locationEnvelope struct {
	Data []locationDTO `json:"data"`
}

type locationDTO struct {
	LocationID     string `json:"locationId"`
	Chain          string `json:"chain"`
	Name           string `json:"name"`
	DivisionNumber string `json:"divisionNumber"`
	Address        struct {
		AddressLine1 string `json:"addressLine1"`
		City         string `json:"city"`
		State        string `json:"state"`
		ZipCode      string `json:"zipCode"`
	} `json:"address"`
	Geolocation *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geolocation"`
}

func (d locationDTO) toLocation() Location {
	division := d.DivisionNumber
	if division == "" && len(d.LocationID) >= 3 {
		// Location IDs are the division number followed by the store number.
		division = d.LocationID[:3]
	}
	loc := Location{
		LocationID:   d.LocationID,
		Chain:        d.Chain,
		Name:         d.Name,
		Division:     division,
		AddressLine1: d.Address.AddressLine1,
		City:         d.Address.City,
		State:        d.Address.State,
		ZipCode:      d.Address.ZipCode,
	}
	if d.Geolocation != nil {
		lat, lng := d.Geolocation.Latitude, d.Geolocation.Longitude
		loc.Latitude = &lat
		loc.Longitude = &lng
	}
	return loc
}
