package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"1", command{name: cmdSend, text: "1"}},
		{"How warm is it?", command{name: cmdSend, text: "How warm is it?"}},
		{"EXIT", command{name: cmdExit}},
		{"/quit", command{name: cmdExit}},
		{"/help", command{name: cmdHelp}},
		{"/restart", command{name: cmdRestart}},
		{"/edit 3 what about Vindhya", command{name: cmdEdit, index: 3, text: "what about Vindhya"}},
		{"/edit 3", command{name: cmdInvalid, text: "/edit 3"}},
		{"/edit three x", command{name: cmdInvalid, text: "/edit three x"}},
		{"/chart 7", command{name: cmdChart, index: 7}},
		{"/chart", command{name: cmdInvalid, text: "/chart"}},
		{"/tmp is full?", command{name: cmdSend, text: "/tmp is full?"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommand(tt.line))
		})
	}
}
