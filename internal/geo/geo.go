// Package geo computes point-to-point distance and distance-adjusted pricing
// for delivered-price previews and deal confirmation.
package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// earthRadiusKm is the mean earth radius used by the haversine formula.
const earthRadiusKm = 6371.0088

// DistanceKm returns the haversine distance between two coordinates, rounded
// to 3 decimal places. Any nil coordinate yields nil: distance is unknown,
// not zero.
func DistanceKm(lat1, lng1, lat2, lng2 *float64) *decimal.Decimal {
	if lat1 == nil || lng1 == nil || lat2 == nil || lng2 == nil {
		return nil
	}

	rLat1 := *lat1 * math.Pi / 180
	rLat2 := *lat2 * math.Pi / 180
	dLat := (*lat2 - *lat1) * math.Pi / 180
	dLng := (*lng2 - *lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	km := decimal.NewFromFloat(earthRadiusKm * c)
	rounded := km.Round(3)
	return &rounded
}

// DeliveredPrice returns base + km*rate rounded to 2 decimal places, or nil
// when the distance is unknown. A delivered price is never fabricated from a
// missing distance.
func DeliveredPrice(base decimal.Decimal, km *decimal.Decimal, rate decimal.Decimal) *decimal.Decimal {
	if km == nil {
		return nil
	}
	price := base.Add(km.Mul(rate)).Round(2)
	return &price
}
