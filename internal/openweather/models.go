package openweather

// GeocodingResponse is one entry of the zip geocoding API.
type GeocodingResponse struct {
	Zip     string  `json:"zip"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

type OneCallResponse struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
	Daily    []Daily `json:"daily"`
}

type Daily struct {
	Dt      int64       `json:"dt"`
	Temp    *Temp       `json:"temp"`
	Weather []Condition `json:"weather"`
	Pop     float64     `json:"pop"`
}

type Temp struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Day float64 `json:"day"`
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
