package model

import (
	"fmt"
	"math"
)

type Product struct {
	Base
	RoasterID     *int   `json:"roaster_id"`
	BeanTypeID    IDList `json:"bean_type_id"`
	CountryID     *int   `json:"country_id"`
	RegionID      IDList `json:"region_id"`
	DecafMethodID *int   `json:"decaf_method_id"`
	ProductName   string `json:"product_name,omitempty"`
	RoastType     *int   `json:"roast_type"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Decaf         bool   `json:"decaf"`
	BeanProcess   string `json:"bean_process,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Rating        *int   `json:"rating"`
}

type Batch struct {
	Base
	ProductID    int      `json:"product_id"`
	RoastDate    string   `json:"roast_date,omitempty"`
	PurchaseDate string   `json:"purchase_date,omitempty"`
	AmountGrams  *float64 `json:"amount_grams"`
	Price        *float64 `json:"price"`
	Seller       string   `json:"seller,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Rating       *int     `json:"rating"`
	IsActive     bool     `json:"is_active"`
}

type BrewSession struct {
	Base
	Timestamp          Timestamp `json:"timestamp"`
	ProductID          int       `json:"product_id"`
	ProductBatchID     int       `json:"product_batch_id"`
	BrewMethodID       *int      `json:"brew_method_id"`
	RecipeID           *int      `json:"recipe_id"`
	GrinderID          *int      `json:"grinder_id"`
	GrinderSetting     string    `json:"grinder_setting,omitempty"`
	FilterID           *int      `json:"filter_id"`
	KettleID           *int      `json:"kettle_id"`
	ScaleID            *int      `json:"scale_id"`
	AmountCoffeeGrams  *float64  `json:"amount_coffee_grams"`
	AmountWaterGrams   *float64  `json:"amount_water_grams"`
	BrewTemperatureC   *float64  `json:"brew_temperature_c"`
	BloomTimeSeconds   *int      `json:"bloom_time_seconds"`
	BrewTimeSeconds    *int      `json:"brew_time_seconds"`
	Sweetness          *int      `json:"sweetness"`
	Acidity            *int      `json:"acidity"`
	Bitterness         *int      `json:"bitterness"`
	Body               *int      `json:"body"`
	Aroma              *int      `json:"aroma"`
	FlavorProfileMatch *int      `json:"flavor_profile_match"`
	Score              *float64  `json:"score"`
	Notes              string    `json:"notes,omitempty"`
}

const gramsPerCup = 18.0

// BrewRatio formats water/coffee as "1:x.y". Nil when either amount is
// missing or the coffee amount is not positive.
func BrewRatio(coffeeGrams, waterGrams *float64) *string {
	if coffeeGrams == nil || waterGrams == nil || *coffeeGrams <= 0 || *waterGrams == 0 {
		return nil
	}

	ratio := fmt.Sprintf("1:%.1f", *waterGrams / *coffeeGrams)

	return &ratio
}

// PricePerCup assumes an 18 g dose per cup and rounds to cents.
func PricePerCup(price, amountGrams *float64) *float64 {
	if price == nil || amountGrams == nil || *price == 0 || *amountGrams <= 0 {
		return nil
	}

	cups := *amountGrams / gramsPerCup
	perCup := math.Round(*price/cups*100) / 100

	return &perCup
}

func (s *BrewSession) BrewRatio() *string {
	return BrewRatio(s.AmountCoffeeGrams, s.AmountWaterGrams)
}

func (b *Batch) PricePerCup() *float64 {
	return PricePerCup(b.Price, b.AmountGrams)
}
