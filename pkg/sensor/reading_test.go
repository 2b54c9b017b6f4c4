package sensor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReading_JSONKeepsOrder(t *testing.T) {
	var r Reading
	require.NoError(t, json.Unmarshal([]byte(`{"node_id":"AQ-TH00-00","pm25":"12 ug","temperature":25.5,"status":null}`), &r))

	assert.Equal(t, []string{"node_id", "pm25", "temperature", "status"}, r.Keys())
	assert.Equal(t, "AQ-TH00-00", r.NodeID())
	v, _ := r.Get("temperature")
	assert.Equal(t, 25.5, v)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"node_id":"AQ-TH00-00","pm25":"12 ug","temperature":25.5,"status":null}`, string(out))
	assert.Equal(t, `{"node_id":"AQ-TH00-00","pm25":"12 ug","temperature":25.5,"status":null}`, string(out))
}

func TestReading_RejectsNonObject(t *testing.T) {
	var r Reading
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestDecodeLatest(t *testing.T) {
	payload := []byte(`{
		"AQ": [{"node_id": "AQ-TH00-00", "pm25": 10}, {"node_id": "AQ-VN00-00", "pm25": 20}],
		"WM": [{"node_id": "WM-WF-KB04-70", "flow": "3 L"}, {"flow": "orphan"}],
		"meta": {"count": 3},
		"dup": [{"node_id": "AQ-TH00-00", "pm25": 11}]
	}`)

	got, err := DecodeLatest(payload)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "AQ-TH00-00", got[0].NodeID())
	v, _ := got[0].Get("pm25")
	assert.Equal(t, 11.0, v, "later reading for the same node wins")
	assert.Equal(t, "AQ-VN00-00", got[1].NodeID())
	assert.Equal(t, "WM-WF-KB04-70", got[2].NodeID())
}

func TestDecodeLatest_Invalid(t *testing.T) {
	_, err := DecodeLatest([]byte(`[]`))
	assert.Error(t, err)
	_, err = DecodeLatest([]byte(`{"a": [`))
	assert.Error(t, err)
}

func TestMarkdownTable(t *testing.T) {
	rows := []Reading{
		NewReading("node_id", "AQ-VN00-00", "pm25", "10"),
		NewReading("node_id", "AQ-VN00-01", "pm25", "a|b"),
	}
	got := MarkdownTable([]string{"Building: VN"}, rows)
	want := "# Data For the Identifiers:\nBuilding: VN\n\n|node_id|pm25|\n|-|-|\n|AQ-VN00-00|10|\n|AQ-VN00-01|a\\|b|\n"
	assert.Equal(t, want, got)
}
