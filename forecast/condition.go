package forecast

import "fmt"

// Condition represents one label from the closed weather-condition set.
type Condition string

const (
	Sunny        Condition = "sunny"
	Cloudy       Condition = "cloudy"
	Rainy        Condition = "rainy"
	Snowy        Condition = "snowy"
	Foggy        Condition = "foggy"
	Thunderstorm Condition = "thunderstorm"
	Unknown      Condition = "unknown"
)

// weatherCodes maps WMO weather interpretation codes, as reported by
// Open-Meteo, to conditions. The table is data, not logic: supporting an
// alternate provider means swapping the table. Codes absent from the
// table normalize to Unknown.
var weatherCodes = map[int]Condition{
	0:  Sunny,        // Clear sky
	1:  Sunny,        // Mainly clear
	2:  Cloudy,       // Partly cloudy
	3:  Cloudy,       // Overcast
	45: Foggy,        // Fog
	48: Foggy,        // Depositing rime fog
	51: Rainy,        // Light drizzle
	53: Rainy,        // Moderate drizzle
	55: Rainy,        // Dense drizzle
	61: Rainy,        // Slight rain
	63: Rainy,        // Moderate rain
	65: Rainy,        // Heavy rain
	71: Snowy,        // Slight snow fall
	73: Snowy,        // Moderate snow fall
	75: Snowy,        // Heavy snow fall
	95: Thunderstorm, // Thunderstorm
	96: Thunderstorm, // Thunderstorm with slight hail
	99: Thunderstorm, // Thunderstorm with heavy hail
}

// ConditionForCode maps a provider weather code to a condition. It is
// total: codes outside the table return Unknown rather than an error, so
// an extended provider code set degrades gracefully.
func ConditionForCode(code int) Condition {
	if c, ok := weatherCodes[code]; ok {
		return c
	}
	return Unknown
}

// ParseCondition validates a user-supplied condition label.
func ParseCondition(s string) (Condition, error) {
	switch c := Condition(s); c {
	case Sunny, Cloudy, Rainy, Snowy, Foggy, Thunderstorm:
		return c, nil
	}
	return "", fmt.Errorf("invalid condition %q", s)
}

// satisfies reports whether the condition is one of the acceptable set.
// Unknown never satisfies a preference, even if listed.
func (c Condition) satisfies(acceptable []Condition) bool {
	if c == Unknown {
		return false
	}
	for _, a := range acceptable {
		if c == a {
			return true
		}
	}
	return false
}

// ToFahrenheit converts a Celsius temperature to Fahrenheit. The
// conversion is exact; rounding is a presentation concern.
func ToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// TemperatureRange represents a coarse temperature preference. The zero
// value means no preference and matches any temperature.
type TemperatureRange string

const (
	TempAny  TemperatureRange = ""
	TempCold TemperatureRange = "cold" // below 50°F (10°C)
	TempCool TemperatureRange = "cool" // 50-67°F (10-19°C)
	TempWarm TemperatureRange = "warm" // 68-85°F (20-29°C)
	TempHot  TemperatureRange = "hot"  // 86°F+ (30°C+)
)

// ParseTemperatureRange validates a user-supplied temperature range
// label. The empty string parses to TempAny.
func ParseTemperatureRange(s string) (TemperatureRange, error) {
	switch r := TemperatureRange(s); r {
	case TempAny, TempCold, TempCool, TempWarm, TempHot:
		return r, nil
	}
	return "", fmt.Errorf("invalid temperature range %q", s)
}

// Matches reports whether a Fahrenheit temperature falls in the range.
func (r TemperatureRange) Matches(tempF float64) bool {
	switch r {
	case TempAny:
		return true
	case TempCold:
		return tempF < 50
	case TempCool:
		return tempF >= 50 && tempF < 68
	case TempWarm:
		return tempF >= 68 && tempF < 86
	case TempHot:
		return tempF >= 86
	}
	return false
}
