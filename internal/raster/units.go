package raster

// KelvinToCelsius converts surface temperature readings for display and
// joining; source land-surface products report Kelvin.
func KelvinToCelsius(k float64) float64 { return k - 273.15 }

// ConfidenceFraction rescales a 0-100 integer confidence onto [0, 1].
func ConfidenceFraction(c float64) float64 { return c / 100 }
