package model

import "strings"

// Views are read-time projections. They are built on every read and never stored.

type ProductView struct {
	Product
	Roaster     *Lookup  `json:"roaster"`
	BeanType    []Lookup `json:"bean_type"`
	Country     *Lookup  `json:"country"`
	Region      []Lookup `json:"region"`
	DecafMethod *Lookup  `json:"decaf_method"`
}

const notAvailable = "N/A"

// DisplayName is "<roaster> - <bean types>" as shown on batch and brew session listings.
func (p *ProductView) DisplayName() string {
	roaster := notAvailable
	if p.Roaster != nil {
		roaster = p.Roaster.Name
	}

	beanTypes := notAvailable

	if len(p.BeanType) > 0 {
		names := make([]string, 0, len(p.BeanType))
		for _, beanType := range p.BeanType {
			names = append(names, beanType.Name)
		}

		beanTypes = strings.Join(names, ", ")
	}

	return roaster + " - " + beanTypes
}

type BatchView struct {
	Batch
	ProductName string   `json:"product_name"`
	PricePerCup *float64 `json:"price_per_cup"`
}

type ProductDetails struct {
	Roaster     *Lookup  `json:"roaster"`
	BeanType    []Lookup `json:"bean_type"`
	ProductName string   `json:"product_name"`
	RoastDate   string   `json:"roast_date"`
	RoastType   *int     `json:"roast_type"`
	Decaf       bool     `json:"decaf"`
}

type BrewSessionView struct {
	BrewSession
	BrewMethod     *Lookup         `json:"brew_method"`
	Recipe         *Lookup         `json:"recipe"`
	Grinder        *Lookup         `json:"grinder"`
	Filter         *Lookup         `json:"filter"`
	Kettle         *Lookup         `json:"kettle"`
	Scale          *Lookup         `json:"scale"`
	BrewRatio      *string         `json:"brew_ratio"`
	ProductName    string          `json:"product_name"`
	ProductDetails *ProductDetails `json:"product_details"`
}
