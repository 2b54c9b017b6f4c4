package runner

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadCommand is reported for malformed slash commands.
var ErrBadCommand = errors.New("unknown or malformed command")

// Help lists the commands understood by the runner.
const Help = `Commands:
  /restart              start the conversation over
  /edit <index> <text>  rewrite a previous message and replay from it
  /chart <index>        summarize the chart behind an answer
  /help                 show this help
  exit, quit            leave`

type commandName int

const (
	cmdSend commandName = iota
	cmdExit
	cmdHelp
	cmdRestart
	cmdEdit
	cmdChart
	cmdInvalid
)

type command struct {
	name  commandName
	index int
	text  string
}

// parseCommand classifies an input line. Anything that is not a known
// command is sent to the conversation as is.
func parseCommand(line string) command {
	switch strings.ToLower(line) {
	case "exit", "quit", "/exit", "/quit":
		return command{name: cmdExit}
	case "/help":
		return command{name: cmdHelp}
	case "/restart":
		return command{name: cmdRestart}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{name: cmdSend, text: line}
	}

	switch fields[0] {
	case "/edit":
		if len(fields) < 3 {
			break
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			break
		}
		return command{name: cmdEdit, index: idx, text: strings.Join(fields[2:], " ")}
	case "/chart":
		if len(fields) != 2 {
			break
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			break
		}
		return command{name: cmdChart, index: idx}
	default:
		// Not a command we know: plain chat text that happens to start with a slash.
		return command{name: cmdSend, text: line}
	}
	return command{name: cmdInvalid, text: line}
}
