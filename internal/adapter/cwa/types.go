package cwa

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CWA open data response shapes. Datasets disagree on whether numbers are
// quoted, so numeric fields use flexNumber.

type envelope struct {
	Success string `json:"success"`
}

func (e envelope) ok() bool { return e.Success == "true" }

type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// W-C0033-001

type hazardResponse struct {
	envelope
	Records struct {
		Location []hazardLocation `json:"location"`
	} `json:"records"`
}

type hazardLocation struct {
	LocationName     string `json:"locationName"`
	HazardConditions struct {
		Hazards []hazard `json:"hazards"`
	} `json:"hazardConditions"`
}

type hazard struct {
	Info struct {
		Phenomena    string `json:"phenomena"`
		Significance string `json:"significance"`
	} `json:"info"`
	ValidTime struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	} `json:"validTime"`
}

// W-C0034-005

type typhoonResponse struct {
	envelope
	Records struct {
		TropicalCyclones struct {
			TropicalCyclone []tropicalCyclone `json:"tropicalCyclone"`
		} `json:"tropicalCyclones"`
	} `json:"records"`
}

type tropicalCyclone struct {
	TyphoonName    string `json:"typhoonName"`
	CwaTyphoonName string `json:"cwaTyphoonName"`
	CwaTdNo        string `json:"cwaTdNo"`
	CwaTyNo        string `json:"cwaTyNo"`
	AnalysisData   struct {
		Fix []cycloneFix `json:"fix"`
	} `json:"analysisData"`
}

type cycloneFix struct {
	FixTime         string     `json:"fixTime"`
	Coordinate      string     `json:"coordinate"` // "lon,lat"
	MaxWindSpeed    flexNumber `json:"maxWindSpeed"`
	MaxGustSpeed    flexNumber `json:"maxGustSpeed"`
	Pressure        flexNumber `json:"pressure"`
	MovingSpeed     flexNumber `json:"movingSpeed"`
	MovingDirection string     `json:"movingDirection"`
}

// O-A0002-001 and O-A0001-001

type stationResponse struct {
	envelope
	Records struct {
		Station []station `json:"Station"`
	} `json:"records"`
}

type station struct {
	StationName string `json:"StationName"`
	StationID   string `json:"StationId"`
	GeoInfo     struct {
		CountyName string `json:"CountyName"`
		TownName   string `json:"TownName"`
	} `json:"GeoInfo"`
	RainfallElement struct {
		Past1hr  precipitation `json:"Past1hr"`
		Past24hr precipitation `json:"Past24hr"`
	} `json:"RainfallElement"`
	WeatherElement struct {
		WindSpeed flexNumber `json:"WindSpeed"`
		GustInfo  struct {
			PeakGustSpeed flexNumber `json:"PeakGustSpeed"`
		} `json:"GustInfo"`
	} `json:"WeatherElement"`
}

type precipitation struct {
	Precipitation flexNumber `json:"Precipitation"`
}

var _ json.Unmarshaler = (*flexNumber)(nil)
