package qweather

// QWeather v7 response shapes. Numeric fields arrive as strings.

type envelope struct {
	Code string `json:"code"`
}

type hourlyResponse struct {
	envelope
	Hourly []hourlyItem `json:"hourly"`
}

type hourlyItem struct {
	FxTime string `json:"fxTime"` // 2024-07-01T09:00+08:00
	Temp   string `json:"temp"`
	Text   string `json:"text"`
}

type dailyResponse struct {
	envelope
	Daily []dailyItem `json:"daily"`
}

type dailyItem struct {
	FxDate    string `json:"fxDate"`
	TempMax   string `json:"tempMax"`
	TempMin   string `json:"tempMin"`
	TextDay   string `json:"textDay"`
	TextNight string `json:"textNight"`
}

type indicesResponse struct {
	envelope
	Daily []indexItem `json:"daily"`
}

type indexItem struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

type warningResponse struct {
	envelope
	Warning []warningItem `json:"warning"`
}

type warningItem struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	PubTime  string `json:"pubTime"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Severity string `json:"severity"`
	Type     string `json:"type"`
	TypeName string `json:"typeName"`
	Text     string `json:"text"`
}

type geoResponse struct {
	envelope
	Location []geoLocation `json:"location"`
}

type geoLocation struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Adm1 string `json:"adm1"`
	Adm2 string `json:"adm2"`
}

// Warning is one active advisory for a location.
type Warning struct {
	ID       string
	Title    string
	Text     string
	TypeName string
	Severity string
}
