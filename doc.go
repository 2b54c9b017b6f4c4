/*
Package citychat is a conversational assistant for smart-city sensor data.

A user walks a menu tree (building, vertical, node-specific data) or asks free
questions; the engine translates each choice into calls against the smart-city
backend and answers with readings, aggregates, shareable data tables and
chartable series.

# Concept

The conversation is a directed graph of nodes (see pkg/graph and the built-in
tree in pkg/menu). Each submission produces a new session snapshot whose
Generation is one above the previous one, so hosts can discard results computed
against an outdated snapshot. Sessions live in a pluggable store (memory, JSON
files or Redis) and are serialized per session ID.

Hosts (the terminal runner, the HTTP widget server and the MCP server) only
talk to the Engine defined here.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/citychat"
		"github.com/aretw0/citychat/pkg/gateway"
	)

	func main() {
		eng, err := citychat.New(
			citychat.WithGateway(gateway.New(gateway.WithBaseURL("https://smartcitylivinglab.iiit.ac.in"))),
		)
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		s, err := eng.Start(ctx, "")
		if err != nil {
			log.Fatal(err)
		}

		// Building Specific Data -> Air Quality -> Vindhya
		for _, in := range []string{"1", "1", "1"} {
			if s, err = eng.Send(ctx, s.ID, in); err != nil {
				log.Fatal(err)
			}
		}
		for _, m := range s.Messages {
			fmt.Println(m.Sender, m.Text)
		}
	}
*/
package citychat
