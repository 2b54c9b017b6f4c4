/*
Package runner implements the terminal loop for a citychat session.

It acts as the bridge between the conversation engine and a terminal or a
parent process. The runner starts or resumes a session, prints what the user
has not seen yet, reads input through a pluggable handler and understands a
few slash commands (/restart, /edit, /chart, /help).

# Key Components

  - Runner: The loop driving one session against a Conversation.
  - IOHandler: Decouples how the runner talks to the user.
  - TextHandler: Interactive CLI usage, optionally rendering markdown.
  - JSONHandler: JSON-Lines frames for headless hosts.

# Usage

	eng, _ := citychat.New()
	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithRenderer(tui.NewRenderer()),
	)

	if err := r.Run(ctx, eng); err != nil {
		log.Fatal(err)
	}
*/
package runner
