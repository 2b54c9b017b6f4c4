package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/citychat/pkg/sensor"
)

func readings(ids ...string) []sensor.Reading {
	out := make([]sensor.Reading, len(ids))
	for i, id := range ids {
		out[i] = sensor.NewReading("node_id", id, "value", "1")
	}
	return out
}

func ids(rs []sensor.Reading) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.NodeID())
	}
	return out
}

func TestFilterReadings(t *testing.T) {
	all := readings("AQ-VN00-00", "AQ-TH01-00", "WE-VN01-00", "SR-AQ-KH00-01", "WM-WF-KB04-70")

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"No Criteria", Criteria{}, ids(all)},
		{"Building", Criteria{BuildingID: "VN"}, []string{"AQ-VN00-00", "WE-VN01-00"}},
		{"Vertical Prefix", Criteria{VerticalID: "AQ"}, []string{"AQ-VN00-00", "AQ-TH01-00"}},
		{"Vertical In First Four", Criteria{VerticalID: "SR"}, []string{"SR-AQ-KH00-01"}},
		{"Vertical And Building", Criteria{VerticalID: "WE", BuildingID: "VN"}, []string{"WE-VN01-00"}},
		{"Floor", Criteria{BuildingID: "VN", FloorID: "01"}, []string{"WE-VN01-00"}},
		{"Exact Node", Criteria{NodeID: "AQ-TH01-00"}, []string{"AQ-TH01-00"}},
		{"No Match", Criteria{BuildingID: "ZZ"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FilterReadings(all, tt.c)
			assert.Equal(t, tt.want, ids(res.Readings))
			assert.Empty(t, res.Notice)
		})
	}
}

func TestFilterReadings_FuzzyNode(t *testing.T) {
	all := readings("AQ-VN00-00", "AQ-TH01-00")

	res := FilterReadings(all, Criteria{NodeID: "AQ-TH01-0"})
	assert.Equal(t, []string{"AQ-TH01-00"}, ids(res.Readings))
	assert.Equal(t, "AQ-TH01-00", res.Substitute)
	assert.Equal(t, "No data found for the node AQ-TH01-0. One of the closest match is AQ-TH01-00", res.Notice)
}

func TestFilterReadings_FuzzyNodeWithoutData(t *testing.T) {
	res := FilterReadings(nil, Criteria{NodeID: "X"})
	assert.Empty(t, res.Readings)
	assert.Empty(t, res.Notice)
}

func TestCriteria_NoDataMessage(t *testing.T) {
	c := Criteria{BuildingID: "VN"}
	assert.Equal(t, "No data found for the identifiers: Building - VN", c.NoDataMessage())

	c = Criteria{BuildingID: "VN", VerticalID: "AQ", FloorID: "01", NodeID: "N"}
	assert.Equal(t, "No data found for the identifiers: Building - VN, Vertical - AQ, Floor - 01, Node - N", c.NoDataMessage())
	assert.Equal(t, []string{"Building: VN", "Vertical: AQ", "Floor: 01"}, c.Header())
}
